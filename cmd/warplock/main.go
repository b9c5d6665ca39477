// Command warplock schedules screen locks through a background daemon.
package main

import (
	"fmt"
	"os"

	"github.com/warpdl/warplock/cmd"
)

// Set at link time with -ldflags "-X main.version=...".
var (
	version   string
	commit    string
	date      string
	buildType = "unclassified"
)

func main() {
	bArgs := cmd.BuildArgs{
		Version:   version,
		Commit:    commit,
		Date:      date,
		BuildType: buildType,
	}
	if err := cmd.Execute(os.Args, bArgs); err != nil {
		fmt.Fprintf(os.Stderr, "warplock: %v\n", err)
		os.Exit(1)
	}
}
