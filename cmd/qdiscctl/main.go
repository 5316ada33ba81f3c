// Command qdiscctl is the demo CLI for the qdisc scheduling library: it
// loads a topology YAML file, builds a live qdisc tree from it, and drives
// a worker pool against it. It is a thin shell over the library's public
// API (config, scheduler, telemetry) and carries none of the core's
// scheduling logic itself.
package main

import (
	"fmt"
	"os"

	"github.com/justapithecus/qdisc/cli/cmd"
)

// commit is set via -ldflags "-X main.commit=..." at build time.
var commit = "unknown"

func main() {
	if err := cmd.App(commit).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
