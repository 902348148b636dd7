// Package fsutil contains filesystem helpers shared by the packager and the
// installer. The deep copy is deliberately separate from any pruning or
// archiving step so each operation stays testable on its own.
package fsutil
