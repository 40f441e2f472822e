// Package version holds build information injected with -ldflags -X.
package version

import "fmt"

// Build information. Release builds override these with
// -ldflags "-X github.com/Sumatoshi-tech/ordtree/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
