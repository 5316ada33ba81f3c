// Package notify implements optional, fire-and-forget notification of
// workload terminal transitions to an external system, in the same shape as
// the teacher's adapter package: a small publish/close interface with one
// concrete HTTP implementation.
package notify

import (
	"context"
	"time"
)

// Event is the payload delivered when a workload reaches a terminal state.
type Event struct {
	WorkloadID string    `json:"workload_id"`
	Handle     uint64    `json:"handle"`
	Outcome    string    `json:"outcome"` // completed, faulted, canceled
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier publishes terminal-transition events to a downstream system.
// Implementations must be safe for concurrent use; Dispatcher calls Notify
// from a single background goroutine, but a caller may hold its own
// reference too.
type Notifier interface {
	// Notify sends event downstream. Must respect context cancellation.
	Notify(ctx context.Context, event *Event) error
	// Close releases adapter resources.
	Close() error
}
