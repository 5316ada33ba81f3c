package telemetry

import (
	"time"

	"github.com/justapithecus/qdisc/workload"
)

// WorkloadRecord is the storage format for one terminal workload, grounded
// on the teacher's lode.EventRecord shape: a record_kind discriminator plus
// Hive partition keys (source/category/day) alongside the payload fields.
type WorkloadRecord struct {
	RecordKind string `json:"record_kind"`

	WorkloadID  string `json:"workload_id"`
	HandlePath  string `json:"handle_path"`
	State       string `json:"state"`
	Outcome     string `json:"outcome"`
	Detail      string `json:"detail,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	CompletedAt string `json:"completed_at"`

	// Partition keys, used by Lode's HiveLayout.
	Source   string `json:"source"`
	Category string `json:"category"`
	Day      string `json:"day"`
	RunID    string `json:"run_id"`
}

// RecordKindWorkload is the record_kind discriminator for WorkloadRecord.
const RecordKindWorkload = "workload"

// DeriveDay computes the Hive partition day from t, matching the teacher's
// lode.DeriveDay (YYYY-MM-DD in UTC).
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NewWorkloadRecord builds a WorkloadRecord from a terminal workload, its
// submission handle path, and the time it was observed to have completed.
// w must be in a terminal state; calling this on a non-terminal workload
// produces a record whose Outcome/Detail reflect that misuse rather than
// panicking, matching workload.Classify's own policy.
func NewWorkloadRecord(cfg Config, handlePath string, w *workload.Workload, started, completedAt time.Time) WorkloadRecord {
	outcome, detail := workload.ClassifyWorkload(w)
	return WorkloadRecord{
		RecordKind:  RecordKindWorkload,
		WorkloadID:  w.ID,
		HandlePath:  handlePath,
		State:       w.State().String(),
		Outcome:     outcome.String(),
		Detail:      detail,
		DurationMS:  completedAt.Sub(started).Milliseconds(),
		CompletedAt: completedAt.UTC().Format(time.RFC3339Nano),
		Source:      cfg.Source,
		Category:    cfg.Category,
		Day:         DeriveDay(completedAt),
		RunID:       cfg.RunID,
	}
}

// toRecordMap converts r to the map[string]any shape Lode's HiveLayout
// writer expects, the way the teacher's toEventRecordMap does.
func (r WorkloadRecord) toRecordMap() map[string]any {
	m := map[string]any{
		"record_kind":  r.RecordKind,
		"workload_id":  r.WorkloadID,
		"handle_path":  r.HandlePath,
		"state":        r.State,
		"outcome":      r.Outcome,
		"duration_ms":  r.DurationMS,
		"completed_at": r.CompletedAt,
		"source":       r.Source,
		"category":     r.Category,
		"day":          r.Day,
		"run_id":       r.RunID,
	}
	if r.Detail != "" {
		m["detail"] = r.Detail
	}
	return m
}
