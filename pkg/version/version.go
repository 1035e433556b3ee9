// Package version holds the build version, overridable with
// -ldflags "-X pigeonflight/pkg/version.Version=...".
package version

// Version is the current application version.
var Version = "v0.3.0"
