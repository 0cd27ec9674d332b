// Package version reports the build of the ttsdatagen binary.
//
// Release builds stamp the variables below:
//
//	go build -ldflags "-X github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/version.version=1.0.0 \
//	  -X github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/version.gitCommit=abc1234"
//
// Unstamped builds fall back to the module version and VCS settings the
// toolchain records.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
)

const devVersion = "dev"

var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// Info describes one build.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Built   string `json:"built,omitempty"`
	// Dirty is set for unstamped builds of a modified checkout.
	Dirty bool `json:"dirty,omitempty"`
}

// Get collects the build information.
func Get() Info {
	info := Info{Version: version, Commit: gitCommit, Built: buildDate}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Commit != "" {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value[:min(7, len(s.Value))]
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

func GetVersion() string { return Get().Version }

// GetVersionInfo is the multi-line text printed by `ttsdatagen version`.
func GetVersionInfo() string {
	info := Get()
	var b strings.Builder
	fmt.Fprintf(&b, "ttsdatagen version %s", info.Version)
	if info.Commit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", info.Commit)
		if info.Dirty {
			b.WriteString(" (modified)")
		}
	}
	if info.Built != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", info.Built)
	}
	return b.String()
}

// GetBuildInfo returns the build as slog key/value pairs.
func GetBuildInfo() []any {
	info := Get()
	attrs := []any{"version", info.Version}
	if info.Commit != "" {
		attrs = append(attrs, "commit", info.Commit)
	}
	if info.Dirty {
		attrs = append(attrs, "dirty", true)
	}
	if info.Built != "" {
		attrs = append(attrs, "built", info.Built)
	}
	return attrs
}

// LogStartup logs the build at debug level.
func LogStartup() {
	logger.Debug("ttsdatagen starting", GetBuildInfo()...)
}
