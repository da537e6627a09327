package apifetch

import (
	"fmt"
	"runtime"
)

// Build metadata, overridable with -ldflags "-X".
var (
	Version   = "v0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// GetVersion returns the one-line version banner printed by the CLI.
func GetVersion() string {
	return fmt.Sprintf("apifetch %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, GoVersion)
}

// GetVersionInfo returns the build metadata keyed for structured output.
func GetVersionInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
	}
}
