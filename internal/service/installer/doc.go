// Package installer copies a plugin source tree into the QGIS profile
// plugins directory or removes an installed plugin from it.
//
// The target directory is resolved from a per-platform lookup table, so
// supporting a new platform is a data addition rather than new control flow.
// Installs are clean overwrites: any prior installation under the same name
// is deleted before copying, and nothing is pruned from the copy.
package installer
