// Package packager assembles a distributable zip archive from a plugin
// source tree and, when an update folder is configured, the update manifest
// consumed by the updater.
//
// The pipeline is copy, prune, archive: the source tree is copied into an
// exclusively-owned staging directory, build artifacts and VCS metadata are
// pruned from the copy, and the result is zipped under a single top-level
// directory named after the plugin. The source tree is never mutated.
package packager
