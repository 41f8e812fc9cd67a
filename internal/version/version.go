// Package version exposes the hybrid prover's build version, validated
// against semantic-versioning rules so a malformed version baked in by a
// bad build is caught immediately rather than surfacing later as an
// opaque string mismatch somewhere downstream.
package version

import "github.com/blang/semver/v4"

// BuildVersion is the prover's release version, normally overridden at
// build time via -ldflags "-X .../internal/version.BuildVersion=...".
var BuildVersion = "0.0.0-dev"

// Parsed returns BuildVersion as a validated semver.Version, or an error
// if the build was stamped with a malformed version string.
func Parsed() (semver.Version, error) {
	return semver.Parse(BuildVersion)
}

// String returns BuildVersion as-is if it parses as valid semver, or
// "0.0.0-unknown" otherwise, for use in places that just want a label
// and can't propagate an error (log fields, user agent strings).
func String() string {
	if _, err := Parsed(); err != nil {
		return "0.0.0-unknown"
	}
	return BuildVersion
}
