// Package version reports wikidex build information.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name shown in version output and to MCP clients.
const Name = "wikidex"

// Version is set via ldflags at build time:
//
//	-X github.com/Aman-CERP/wikidex/pkg/version.Version=$(VERSION)
var Version = "dev"

// Build information set via ldflags.
var (
	Commit = "unknown"
	Date   = "unknown"

	// GoVersion is the toolchain the binary was built with.
	GoVersion = runtime.Version()
)

// BuildInfo is version information for JSON output.
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns a one-line version string.
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Name, Version, Commit, Date, GoVersion)
}

// Short returns just the version.
func Short() string {
	return Version
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
