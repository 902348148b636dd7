// Package metadata reads the plugin metadata file (metadata.txt), a flat
// key=value text file describing the plugin. Only the version key is
// mechanically consumed by the toolkit; the rest is passed through untouched.
package metadata
