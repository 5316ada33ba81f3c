package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/qdisc/cli/render"
	"github.com/justapithecus/qdisc/cli/tui"
	"github.com/justapithecus/qdisc/config"
	"github.com/justapithecus/qdisc/telemetry"
)

// InspectCommand builds the tree described by a topology file and reports
// its current shape: one bitmap popcount/emptiness observation per node. It
// never submits workloads or starts a scheduler.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "Show the qdisc tree shape described by a topology file",
		Flags:  append(ReadOnlyFlags(), ConfigFlag),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return cli.Exit("inspect requires --config", 1)
	}

	top, err := config.Load(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	root, err := config.Build(*top, top.PoolSize, demoPredicates)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	snap := telemetry.Capture("qdiscctl-inspect", top.PoolSize, root)

	if c.Bool("tui") {
		return tui.RunTree(snap)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(snap)
}
