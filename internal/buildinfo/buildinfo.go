package buildinfo

import "fmt"

// Set through -ldflags "-X tablebook/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("tablebook %s (commit=%s, date=%s)", Version, Commit, Date)
}
