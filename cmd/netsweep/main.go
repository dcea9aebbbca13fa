package main

import "github.com/anstrom/netsweep/cmd/cli"

// Build information, set via ldflags at release time.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
