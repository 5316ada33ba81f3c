package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/justapithecus/lode/lode"
)

// Config holds exporter partition-key configuration, grounded on the
// teacher's lode.Config. Source/Category are caller-supplied logical
// dimensions (e.g. "qdisc", "demo-run"); Day and RunID are derived/assigned
// per record and per exporter instance respectively.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// Source is the partition key for the owning system (e.g. "qdisc").
	Source string
	// Category is the partition key for the logical record type.
	Category string
	// RunID identifies this scheduler instance's export stream.
	RunID string
}

// Exporter batches terminal-workload records to a Lode dataset, the same
// shape as the teacher's lode.Client: one Write call per batch, Hive
// partitioned by source/category/day/run_id/event_type (here, record_kind
// doubles as the event_type partition segment since this exporter only ever
// writes one kind of record).
type Exporter struct {
	dataset lode.Dataset
	cfg     Config

	mu    sync.Mutex
	batch []map[string]any
}

// NewExporter creates an Exporter backed by filesystem storage rooted at
// root.
func NewExporter(cfg Config, root string) (*Exporter, error) {
	return newExporter(cfg, lode.NewFSFactory(root))
}

// NewExporterWithFactory creates an Exporter over an arbitrary Lode store
// factory (e.g. lode.NewMemoryFactory() in tests).
func NewExporterWithFactory(cfg Config, factory lode.StoreFactory) (*Exporter, error) {
	return newExporter(cfg, factory)
}

func newExporter(cfg Config, factory lode.StoreFactory) (*Exporter, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout("source", "category", "day", "run_id", "event_type"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create lode dataset: %w", err)
	}
	return &Exporter{dataset: ds, cfg: cfg}, nil
}

// Record appends r to the in-memory batch. It never blocks on I/O; call
// Flush to commit the batch.
func (e *Exporter) Record(r WorkloadRecord) {
	m := r.toRecordMap()
	m["event_type"] = RecordKindWorkload
	e.mu.Lock()
	e.batch = append(e.batch, m)
	e.mu.Unlock()
}

// Flush writes the accumulated batch to the dataset and clears it. A Flush
// with an empty batch is a no-op, matching the teacher's WriteEvents guard.
func (e *Exporter) Flush(ctx context.Context) error {
	e.mu.Lock()
	batch := e.batch
	e.batch = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	records := make([]any, len(batch))
	for i, m := range batch {
		records[i] = m
	}
	if _, err := e.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return fmt.Errorf("telemetry: write batch: %w", err)
	}
	return nil
}

// Close is a no-op; Lode datasets require no explicit close in the current
// API, matching the teacher's LodeClient.Close.
func (e *Exporter) Close() error { return nil }
