// Package cmd provides qdiscctl's command surface: run, inspect, stats,
// list, and version, grounded on the teacher's cli/cmd package.
package cmd

import "github.com/urfave/cli/v2"

// Version is the canonical qdiscctl version string.
const Version = "0.1.0"

// Shared flags for every command.
var (
	// ConfigFlag points at the topology YAML file (run, inspect, stats).
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a topology YAML file",
	}

	// FormatFlag selects output format: json or table.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table",
	}

	// NoColorFlag disables colored table output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables the Bubble Tea interactive view. Only inspect and
	// stats support it.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}

	// ExportDatasetFlag, ExportSourceFlag, and ExportCategoryFlag set the
	// telemetry.Config partition keys for run's optional terminal-workload
	// export. Only meaningful when --export-dir or --export-s3-bucket is set.
	ExportDatasetFlag = &cli.StringFlag{
		Name:  "export-dataset",
		Usage: "Lode dataset ID for terminal-workload export",
		Value: "qdisc-workloads",
	}
	ExportSourceFlag = &cli.StringFlag{
		Name:  "export-source",
		Usage: "Partition key for the owning system",
		Value: "qdiscctl",
	}
	ExportCategoryFlag = &cli.StringFlag{
		Name:  "export-category",
		Usage: "Partition key for the logical record type",
		Value: "demo-run",
	}

	// ExportDirFlag enables filesystem-backed terminal-workload export,
	// rooted at the given directory.
	ExportDirFlag = &cli.StringFlag{
		Name:  "export-dir",
		Usage: "Export terminal-workload records to this filesystem directory",
	}

	// ExportS3BucketFlag enables S3-backed terminal-workload export. Takes
	// precedence over --export-dir if both are set.
	ExportS3BucketFlag = &cli.StringFlag{
		Name:  "export-s3-bucket",
		Usage: "Export terminal-workload records to this S3 bucket",
	}
	ExportS3PrefixFlag = &cli.StringFlag{
		Name:  "export-s3-prefix",
		Usage: "Key prefix within --export-s3-bucket",
	}
	ExportS3RegionFlag = &cli.StringFlag{
		Name:  "export-s3-region",
		Usage: "AWS region for --export-s3-bucket (default: SDK credential chain)",
	}
)

// ExportFlags are the flags run layers on top of ReadOnlyFlags to configure
// optional terminal-workload telemetry export.
func ExportFlags() []cli.Flag {
	return []cli.Flag{
		ExportDatasetFlag, ExportSourceFlag, ExportCategoryFlag,
		ExportDirFlag, ExportS3BucketFlag, ExportS3PrefixFlag, ExportS3RegionFlag,
	}
}

// ReadOnlyFlags returns the shared flags for inspect, stats, and the list
// subcommands (version takes only --format and --no-color). run
// additionally layers its own demo-tuning flags.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{FormatFlag, NoColorFlag, TUIFlag}
}
