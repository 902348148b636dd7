package main

import "github.com/opengeos/qgis-plugin-kit/cmd/plugin-updater/cmd"

func main() {
	cmd.Execute()
}
