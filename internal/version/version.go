// Package version holds build information for the orivus binary.
package version

import "runtime"

// Overridden at build time:
// go build -ldflags "-X orivus/internal/version.Version=1.0.0 -X orivus/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, with a short commit hash when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns multi-line build information for `orivus version`.
func Full() string {
	return "orivus " + Version + "\n" +
		"commit: " + Commit + "\n" +
		"built:  " + BuildDate + "\n" +
		"go:     " + runtime.Version()
}

// GeneratorTag identifies the generator in generated file headers.
func GeneratorTag() string {
	return "orivus@" + Version
}
