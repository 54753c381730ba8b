// Package version carries build metadata stamped via -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the one-line `murmur version` output. Unstamped builds
// fall back to module and VCS data embedded by the Go toolchain.
func String() string {
	version, commit, date := Version, Commit, Date
	if info, ok := debug.ReadBuildInfo(); ok {
		version, commit, date = fromBuildInfo(info, version, commit, date)
	}
	return fmt.Sprintf("murmur %s (commit=%s, date=%s, go=%s, %s/%s)",
		version, commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func fromBuildInfo(info *debug.BuildInfo, version, commit, date string) (string, string, string) {
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch {
		case setting.Key == "vcs.revision" && commit == "none":
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case setting.Key == "vcs.time" && date == "unknown":
			date = setting.Value
		}
	}
	return version, commit, date
}
