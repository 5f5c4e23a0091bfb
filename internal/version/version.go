// Package version exposes build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Overridden at build time with -ldflags "-X github.com/five82/harbor/internal/version.Version=...".
var (
	Version   = "0.0.0-dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info holds versioning details for display.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Current returns the running build's version with any leading "v" removed.
func Current() string {
	return strings.TrimPrefix(strings.TrimSpace(Version), "v")
}

// GetInfo returns the populated build information.
func GetInfo() Info {
	return Info{
		Version:   Current(),
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String formats the build information one field per line.
func (i Info) String() string {
	return fmt.Sprintf(
		"Version:\t%s\nCommit:\t\t%s\nBuild Date:\t%s\nGo Version:\t%s\nPlatform:\t%s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform,
	)
}
