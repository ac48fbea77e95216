package config

import (
	"strings"

	"golang.org/x/mod/semver"
)

const VersionDev = "<dev>"

// Version is the version of the gift application.
// It is set automatically when creating release builds.
var Version = "v0.1.0"

// DisplayVersion returns the version without the leading "v" (e.g., "0.1.0").
// Development builds are shown as-is.
func DisplayVersion() string {
	if !semver.IsValid(Version) {
		return Version
	}
	return strings.TrimPrefix(semver.Canonical(Version), "v")
}
