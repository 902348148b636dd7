// Package config defines toolkit settings shared by the binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the plugin name, the update folder URL used by
// plugin-updater, and the timeout for network operations.
package config
