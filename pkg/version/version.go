// Package version reports the build version. Release builds stamp it with
//
//	-ldflags "-X github.com/vinodismyname/edamcp/pkg/version.version=v1.2.0"
package version

import (
	"runtime/debug"
	"strings"
)

var version = "dev"

// Version prefers a tagged module version from the build info over the
// ldflags value, which defaults to "dev".
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// Revision returns the short VCS revision recorded by the Go toolchain, with
// a "-dirty" suffix for modified trees. Empty when unknown.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return revision(info.Settings)
}

func revision(settings []debug.BuildSetting) string {
	var rev string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// String joins Version and Revision for display.
func String() string {
	parts := []string{Version()}
	if rev := Revision(); rev != "" {
		parts = append(parts, "("+rev+")")
	}
	return strings.Join(parts, " ")
}
