// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the full build identifier, e.g. "rankdex 1.4.0 (9f2c1ab, 2026-08-01)".
func String() string {
	return fmt.Sprintf("rankdex %s (%s, %s)", Version, Commit, Date)
}
