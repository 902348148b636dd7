package main

import "github.com/opengeos/qgis-plugin-kit/cmd/plugin-packager/cmd"

func main() {
	cmd.Execute()
}
