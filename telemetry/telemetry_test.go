package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/qdisc/qdisc"
	"github.com/justapithecus/qdisc/telemetry"
	"github.com/justapithecus/qdisc/workload"
)

func buildTree(t *testing.T) *qdisc.Inner {
	t.Helper()
	root, err := qdisc.NewInner(0, qdisc.RoundRobin, qdisc.BitmapVariant, 2, nil)
	if err != nil {
		t.Fatalf("NewInner: %v", err)
	}
	a := qdisc.NewLeaf(1)
	if err := root.TryAddChild(a); err != nil {
		t.Fatalf("TryAddChild: %v", err)
	}
	return root
}

func TestCaptureRoundTrip(t *testing.T) {
	root := buildTree(t)
	if err := root.TryEnqueueByHandle(1, workload.New(func(context.Context) (any, error) { return nil, nil })); err != nil {
		t.Fatalf("TryEnqueueByHandle: %v", err)
	}

	snap := telemetry.Capture("sched-1", 2, root)
	if snap.SchedulerID != "sched-1" || snap.PoolSize != 2 {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if snap.Root.Kind != qdisc.RoundRobin.String() {
		t.Fatalf("expected kind %q, got %q", qdisc.RoundRobin.String(), snap.Root.Kind)
	}
	if len(snap.Root.Children) != 2 { // local queue + child a
		t.Fatalf("expected 2 children, got %d", len(snap.Root.Children))
	}

	encoded, err := telemetry.Encode(snap)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := telemetry.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.SchedulerID != snap.SchedulerID || decoded.Root.Kind != snap.Root.Kind {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, snap)
	}
}

func TestNewWorkloadRecord(t *testing.T) {
	w := workload.New(func(context.Context) (any, error) { return nil, nil })
	w.Bind(dummyBinding{})
	w.StartRunning()
	w.Run()

	started := time.Now().Add(-50 * time.Millisecond)
	completed := time.Now()
	cfg := telemetry.Config{Dataset: "qdisc", Source: "test", Category: "workload", RunID: "run-1"}
	rec := telemetry.NewWorkloadRecord(cfg, "0/1", w, started, completed)

	if rec.RecordKind != telemetry.RecordKindWorkload {
		t.Fatalf("expected record kind %q, got %q", telemetry.RecordKindWorkload, rec.RecordKind)
	}
	if rec.Outcome != "completed" {
		t.Fatalf("expected outcome completed, got %q", rec.Outcome)
	}
	if rec.DurationMS < 0 {
		t.Fatalf("expected non-negative duration, got %d", rec.DurationMS)
	}
}

func TestExporterFlush(t *testing.T) {
	cfg := telemetry.Config{Dataset: "qdisc", Source: "test", Category: "workload", RunID: "run-1"}
	exp, err := telemetry.NewExporterWithFactory(cfg, lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("NewExporterWithFactory: %v", err)
	}

	w := workload.New(func(context.Context) (any, error) { return nil, nil })
	w.Bind(dummyBinding{})
	w.StartRunning()
	w.Run()
	rec := telemetry.NewWorkloadRecord(cfg, "0/1", w, time.Now(), time.Now())
	exp.Record(rec)

	if err := exp.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	// A second flush with nothing queued must be a no-op, not an error.
	if err := exp.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
}

func TestNewExporterFilesystem(t *testing.T) {
	cfg := telemetry.Config{Dataset: "qdisc", Source: "test", Category: "workload", RunID: "run-1"}
	exp, err := telemetry.NewExporter(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	defer exp.Close()

	w := workload.New(func(context.Context) (any, error) { return nil, nil })
	w.Bind(dummyBinding{})
	w.StartRunning()
	w.Run()
	exp.Record(telemetry.NewWorkloadRecord(cfg, "0/1", w, time.Now(), time.Now()))

	if err := exp.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestS3ConfigValidateRejectsMissingBucket(t *testing.T) {
	var s3cfg telemetry.S3Config
	if err := s3cfg.Validate(); err == nil {
		t.Fatal("expected an error for a missing bucket")
	}
	s3cfg.Bucket = "my-bucket"
	if err := s3cfg.Validate(); err != nil {
		t.Fatalf("expected a bucket-only config to validate, got: %v", err)
	}
}

func TestNewExporterS3RejectsMissingBucketBeforeAnyNetworkCall(t *testing.T) {
	cfg := telemetry.Config{Dataset: "qdisc", Source: "test", Category: "workload", RunID: "run-1"}
	_, err := telemetry.NewExporterS3(context.Background(), cfg, telemetry.S3Config{})
	if err == nil {
		t.Fatal("expected NewExporterS3 to reject a config with no bucket")
	}
}

func TestNewExporterS3ConstructsClientWithoutNetworkAccess(t *testing.T) {
	// LoadDefaultConfig only reads env/shared-config files; it does not
	// contact AWS, so constructing the exporter (as opposed to flushing a
	// batch through it) is safe to exercise without credentials or a
	// network stub.
	cfg := telemetry.Config{Dataset: "qdisc", Source: "test", Category: "workload", RunID: "run-1"}
	exp, err := telemetry.NewExporterS3(context.Background(), cfg, telemetry.S3Config{
		Bucket:       "qdisc-demo-bucket",
		Prefix:       "workloads/",
		Region:       "us-east-1",
		UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewExporterS3: %v", err)
	}
	defer exp.Close()
}

type dummyBinding struct{}

func (dummyBinding) TryRemove(*workload.Workload) bool { return false }
