// Package version reports build information stamped in by the release target.
package version

import "fmt"

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the build information for `cowtree version`.
func String() string {
	return fmt.Sprintf("cowtree %s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
