// Package updater keeps an installed plugin in sync with a published release.
//
// It downloads the update manifest from the configured update folder,
// compares the installed plugin's version and file checksums against it,
// fetches changed files into a temporary directory and applies them in place.
// A marker file guards against two updaters rewriting the same tree at once.
//
// The manifest (Description) is also produced by the packager, which is the
// other half of the distribution workflow.
package updater
