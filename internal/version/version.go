// Package version provides build-time version information for the
// apriltag CLI.
package version

// ModuleName identifies the binary in -version output.
const ModuleName = "apriltag"

// These variables are set at build time using -ldflags.
var (
	// Version is the semantic version.
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built.
	BuildTime = "unknown"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"
)
