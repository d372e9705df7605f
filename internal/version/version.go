// Package version provides centralized version information for otto binaries.
// All versions follow semantic versioning (semver) conventions.
package version

// OttodVersion holds the current ottod daemon version.
// Format: major.minor.patch[-prerelease][+build]
const OttodVersion = "0.1.0-dev"
