// Package version holds the ctenv build version, overridden at link time
// via -ldflags "-X github.com/ctenv/ctenv/internal/version.Version=...".
package version

// Version is the ctenv release version. "dev" for local/unreleased builds.
var Version = "dev"
