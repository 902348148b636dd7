// Package version exposes build-time version metadata for the toolkit
// binaries and a helper to attach a `version` subcommand to cobra roots.
//
// Version, Commit and BuildTime are injected via ldflags during release
// builds; defaults are used for local development builds.
package version
