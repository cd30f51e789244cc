// Package version carries build metadata injected with -ldflags, e.g.
//
//	-X github.com/smazurov/nodepower/internal/version.Version=v1.2.0
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release tag.
	Version = "dev"
	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info is build metadata as served by /api/version.
type Info struct {
	Version   string `json:"version" example:"v1.2.0" doc:"Release tag"`
	GitCommit string `json:"git_commit" example:"3f2c1ab" doc:"Source commit"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target OS/architecture"`
}

// Get returns the build metadata. When ldflags were not set, the commit is
// taken from the VCS stamp Go embeds in the binary.
func Get() Info {
	commit := GitCommit
	if commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}
	return Info{
		Version:   Version,
		GitCommit: commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the release tag.
func String() string {
	return Version
}
