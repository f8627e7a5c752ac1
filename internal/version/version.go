package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const name = "cardscan"

func String() string {
	return fmt.Sprintf("%s %s (commit=%s, date=%s, go=%s)", name, Version, Commit, Date, runtime.Version())
}
