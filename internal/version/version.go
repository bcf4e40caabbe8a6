// Package version carries build metadata injected via ldflags:
//
//	-X github.com/ManuGH/videoplane/internal/version.Version=v0.3.0
package version

import "fmt"

var (
	// Version is the release tag of the build.
	Version = "v0.1.0-dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders "version (commit: x, built: y)".
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
