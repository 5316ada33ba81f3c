package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// App assembles qdiscctl's full command surface, grounded on the teacher's
// cmd/quarry/main.go wiring. commit is the build-time git SHA (set via
// ldflags by the caller; "unknown" otherwise).
func App(commit string) *cli.App {
	return &cli.App{
		Name:           "qdiscctl",
		Usage:          "Demo CLI for the qdisc hierarchical workload scheduler",
		Version:        fmt.Sprintf("%s (commit: %s)", Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			RunCommand(),
			InspectCommand(),
			StatsCommand(),
			ListCommand(),
			VersionCommand(commit),
		},
	}
}

// exitErrHandler preserves the exit code from cli.Exit() errors instead of
// always exiting 1, the same contract the teacher's main.go enforces for its
// run command's exit codes.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
