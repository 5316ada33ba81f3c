package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/qdisc/telemetry"
)

// buildExporter constructs a telemetry.Exporter from run's --export-*
// flags, preferring S3 over filesystem when both are set. It returns
// (nil, nil) when no export destination flag was given, the signal run
// uses to skip export entirely.
func buildExporter(ctx context.Context, c *cli.Context, runID string) (*telemetry.Exporter, error) {
	cfg := telemetry.Config{
		Dataset:  c.String("export-dataset"),
		Source:   c.String("export-source"),
		Category: c.String("export-category"),
		RunID:    runID,
	}

	if bucket := c.String("export-s3-bucket"); bucket != "" {
		return telemetry.NewExporterS3(ctx, cfg, telemetry.S3Config{
			Bucket: bucket,
			Prefix: c.String("export-s3-prefix"),
			Region: c.String("export-s3-region"),
		})
	}
	if dir := c.String("export-dir"); dir != "" {
		return telemetry.NewExporter(cfg, dir)
	}
	return nil, nil
}
