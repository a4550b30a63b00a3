// Package version reports the release embedded at build time.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the current version, with whitespace trimmed.
func Get() string {
	return strings.TrimSpace(versionContent)
}

// Revision returns the VCS revision recorded by the Go toolchain, or "".
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

// String renders the version line printed by the CLI.
func String() string {
	rev := Revision()
	if rev == "" {
		return fmt.Sprintf("suitpredict %s (%s)", Get(), runtime.Version())
	}
	return fmt.Sprintf("suitpredict %s (%s, %s)", Get(), rev, runtime.Version())
}
