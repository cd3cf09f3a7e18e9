// Package buildinfo exposes compile-time metadata of the login tool.
package buildinfo

// The following variables are overridden via ldflags during release builds
// (-X main.Version=... in cmd/spacetime-oidc-login).
var (
	// Version is the semantic version or git describe output of the binary.
	Version = "dev"

	// Commit is the git commit SHA baked into the binary.
	Commit = "none"

	// BuildDate records when the binary was built in UTC.
	BuildDate = "unknown"
)
