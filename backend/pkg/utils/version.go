package utils

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time with -ldflags "-X irrigation-monitor/backend/pkg/utils.Version=v1.2.3".
//
//nolint:gochecknoglobals // Overridden by the linker
var Version = "v0.0.0-dev"

type vcsInfo struct {
	commit   string
	time     string
	modified bool
}

func getVCSInfo() vcsInfo {
	info := vcsInfo{commit: "unknown", time: "unknown"}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.commit = s.Value
			if len(info.commit) > 7 {
				info.commit = info.commit[:7]
			}
		case "vcs.time":
			info.time = s.Value
		case "vcs.modified":
			info.modified = s.Value == "true"
		}
	}

	return info
}

func versionWithFlag(info vcsInfo) string {
	if info.modified {
		return Version + "-dirty"
	}

	return Version
}

// GetVersionShort returns "vX.Y.Z (commit)".
func GetVersionShort() string {
	info := getVCSInfo()

	return fmt.Sprintf("%s (%s)", versionWithFlag(info), info.commit)
}

// GetBuildVersion returns "vX.Y.Z (commit) built at <time>".
func GetBuildVersion() string {
	info := getVCSInfo()

	return fmt.Sprintf("%s (%s) built at %s", versionWithFlag(info), info.commit, info.time)
}

// GetBuildInfo returns build metadata as a flat map.
func GetBuildInfo() map[string]string {
	info := getVCSInfo()

	goVersion := "unknown"
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
	}

	return map[string]string{
		"version":      Version,
		"commit":       info.commit,
		"build_time":   info.time,
		"vcs_modified": fmt.Sprintf("%t", info.modified),
		"go_version":   goVersion,
	}
}
