package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/qdisc/cli/render"
	"github.com/justapithecus/qdisc/cli/tui"
)

// StatsCommand runs the same demo batch as run, then reports the
// scheduler's accumulated metrics.Collector snapshot instead of per-workload
// outcomes: dequeue attempts/successes, guard-CAS retries, backtrack hits,
// and round-robin rotation counts, the way the teacher's stats subcommands
// report aggregated run/job/task counters.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Run a demo workload batch and report scheduler metrics",
		Flags: append(ReadOnlyFlags(), ConfigFlag,
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of demo workloads to submit",
				Value: 20,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Maximum time to wait for the batch to drain",
				Value: 10 * time.Second,
			},
		),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return cli.Exit("stats requires --config", 1)
	}
	count := c.Int("count")
	if count <= 0 {
		return cli.Exit("--count must be positive", 1)
	}

	schedulerID := fmt.Sprintf("qdiscctl-stats-%d", time.Now().UnixNano())
	sched, collector, _, err := buildDemoScheduler(schedulerID, path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx := c.Context
	sched.Start(ctx)
	workloads := submitDemoWorkloads(sched, count)
	waitAll(workloads, c.Duration("timeout"))
	sched.Stop()

	snap := collector.Snapshot()

	if c.Bool("tui") {
		return tui.RunStats(snap)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(snap)
}
