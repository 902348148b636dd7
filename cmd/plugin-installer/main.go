package main

import "github.com/opengeos/qgis-plugin-kit/cmd/plugin-installer/cmd"

func main() {
	cmd.Execute()
}
