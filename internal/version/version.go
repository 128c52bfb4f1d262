// Package version holds the cine viewer build information shown in the
// About dialog and the startup log.
package version

// Set at build time with -ldflags "-X cine-viewer/internal/version.Version=...".
var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
