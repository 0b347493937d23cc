package main

// This file intentionally minimal so that the tripanalyzer binary
// can be imported and executed elsewhere. Main content of the
// CLI is in cmd/tripanalyzer/tripanalyzer.go.

import "github.com/livepeer/trip-analyzer/cmd/tripanalyzer"

// Version content of this constant will be set at build time,
// using -ldflags, using output of the `git describe` command.
var Version = "undefined"

func main() {
	tripanalyzer.Run(tripanalyzer.BuildFlags{
		Version: Version,
	})
}
