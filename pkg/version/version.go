// Package version provides build and version information for winwin-search.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current version of winwin-search.
// Set via ldflags at build time, or defaults to dev.
var Version = "dev"

// Build information set via ldflags at build time.
var (
	// Commit is the git commit hash.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// GoVersion is the Go version used to build the binary (set at runtime).
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Info returns the current build information.
func Info() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
	}
}

// String returns a human-readable version string.
func (b BuildInfo) String() string {
	return fmt.Sprintf("winwin-search %s (commit %s, built %s, %s)", b.Version, b.Commit, b.Date, b.GoVersion)
}
