// Package version provides build information for the gosms emulator
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

const unknown = "unknown"

// set at build time via -ldflags
var (
	Version   = "dev"
	GitCommit = unknown
	BuildTime = unknown
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified"`
}

// GetBuildInfo returns build information, filling in VCS details recorded
// by the Go toolchain when they were not set at link time.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == unknown {
				info.GitCommit = setting.Value
			}
		case "vcs.time":
			if info.BuildTime == unknown {
				info.BuildTime = setting.Value
			}
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}

// GetVersion returns a short version string
func GetVersion() string {
	info := GetBuildInfo()
	if info.Version == "dev" && info.GitCommit != unknown {
		return "dev-" + shortCommit(info.GitCommit)
	}
	return info.Version
}

// GetDetailedVersion returns a one line description of the build
func GetDetailedVersion() string {
	info := GetBuildInfo()

	var sb strings.Builder
	fmt.Fprintf(&sb, "gosms version %s", info.Version)
	if info.GitCommit != unknown {
		fmt.Fprintf(&sb, " (commit %s", shortCommit(info.GitCommit))
		if info.Modified {
			sb.WriteString(", modified")
		}
		sb.WriteString(")")
	}
	if info.BuildTime != unknown {
		fmt.Fprintf(&sb, " built %s", info.BuildTime)
	}
	fmt.Fprintf(&sb, " with %s for %s/%s", info.GoVersion, info.Platform, info.Arch)
	return sb.String()
}

// PrintBuildInfo writes formatted build information
func PrintBuildInfo(w io.Writer) {
	info := GetBuildInfo()

	fmt.Fprintln(w, "gosms - Sega Master System emulator")
	fmt.Fprintf(w, "Version:     %s\n", info.Version)
	fmt.Fprintf(w, "Git Commit:  %s\n", info.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:    %s/%s\n", info.Platform, info.Arch)
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
