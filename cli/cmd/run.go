package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/qdisc/cli/render"
	"github.com/justapithecus/qdisc/telemetry"
	"github.com/justapithecus/qdisc/workload"
)

// RunResult is the per-workload summary rendered by the run command.
type RunResult struct {
	WorkloadID string `json:"workload_id"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
}

// RunSummary is the aggregate payload rendered after a run completes.
type RunSummary struct {
	SchedulerID string      `json:"scheduler_id"`
	Submitted   int         `json:"submitted"`
	Results     []RunResult `json:"results"`
}

// RunCommand builds the tree described by a topology file, starts a
// scheduler over it, submits a fixed batch of demo workloads, waits for
// them to drain, and reports each one's terminal outcome. Like stats, and
// unlike inspect, run actually drives the worker pool; it is the only
// qdiscctl command that reports per-workload outcomes or exports them.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a demo workload batch against a topology file",
		Flags: append(append(ReadOnlyFlags(), ExportFlags()...), ConfigFlag,
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
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return cli.Exit("run requires --config", 1)
	}
	count := c.Int("count")
	if count <= 0 {
		return cli.Exit("--count must be positive", 1)
	}

	schedulerID := fmt.Sprintf("qdiscctl-run-%d", time.Now().UnixNano())
	sched, _, top, err := buildDemoScheduler(schedulerID, path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx := c.Context
	exporter, err := buildExporter(ctx, c, schedulerID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	sched.Start(ctx)
	defer sched.Stop()

	started := time.Now()
	workloads := submitDemoWorkloads(sched, count)
	waitAll(workloads, c.Duration("timeout"))
	completedAt := time.Now()

	results := make([]RunResult, len(workloads))
	handlePath := fmt.Sprintf("%d", top.Root.Handle)
	for i, w := range workloads {
		outcome, detail := workload.ClassifyWorkload(w)
		results[i] = RunResult{WorkloadID: w.ID, Outcome: outcome.String(), Detail: detail}
		if exporter != nil {
			exporter.Record(telemetry.NewWorkloadRecord(telemetry.Config{
				Dataset:  c.String("export-dataset"),
				Source:   c.String("export-source"),
				Category: c.String("export-category"),
				RunID:    schedulerID,
			}, handlePath, w, started, completedAt))
		}
	}
	if exporter != nil {
		if err := exporter.Flush(ctx); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		exporter.Close()
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for run", 1)
	}
	return r.Render(RunSummary{SchedulerID: schedulerID, Submitted: count, Results: results})
}
