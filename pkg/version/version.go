package version

import (
	"fmt"
	"runtime/debug"
)

var (
	version = "dev"
	commit  = ""
)

// Version returns the build string embedded via -ldflags when available.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set assigns the exported version when ldflags are not provided (e.g. local dev).
func Set(v string) {
	if v != "" {
		version = v
	}
}

// Commit returns the VCS revision recorded in the build, if any.
func Commit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return ""
}

// String formats version and commit for --version output.
func String() string {
	if c := Commit(); c != "" {
		return fmt.Sprintf("%s (%s)", Version(), c)
	}
	return Version()
}
