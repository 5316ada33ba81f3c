// Package mirror publishes best-effort per-qdisc queue-depth gauges to
// Redis for an external dashboard, grounded on the teacher's
// adapter/redis.Adapter. It is advisory-only: nothing published here is
// ever read back into a scheduling decision (spec Non-goal: no
// cross-process scheduling), and a publish failure never blocks a worker.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/justapithecus/qdisc/telemetry"
)

// DefaultKeyPrefix namespaces the hash keys this package writes.
const DefaultKeyPrefix = "qdisc:depth"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the Redis mirror.
type Config struct {
	// URL is the Redis connection URL (required), e.g.
	// redis://[:password@]host:port[/db].
	URL string
	// KeyPrefix namespaces the hash key this package writes gauges under
	// (default DefaultKeyPrefix).
	KeyPrefix string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 3).
	Retries int
}

// Mirror publishes queue-depth gauges via Redis HSET, two hash fields per
// node (best_effort_count and is_empty), keyed under a single hash so a
// dashboard can HGETALL the whole tree shape in one round trip.
type Mirror struct {
	cfg    Config
	client *goredis.Client
}

// New creates a Mirror from cfg.
func New(cfg Config) (*Mirror, error) {
	if cfg.URL == "" {
		return nil, errors.New("mirror: requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("mirror: invalid URL: %w", err)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("mirror: retries must be >= 0, got %d", cfg.Retries)
	}
	return &Mirror{cfg: cfg, client: goredis.NewClient(opts)}, nil
}

// Publish flattens snap's tree into two hash fields per node (keyed by its
// child-index path from the root, e.g. "root/0:is_empty") and HSETs the
// whole batch in one call.
// Retries with exponential backoff on transient connection errors, the
// same policy as the teacher's redis.Adapter.Publish.
func (m *Mirror) Publish(ctx context.Context, snap telemetry.Snapshot) error {
	fields := map[string]any{}
	flatten(snap.Root, "root", fields)

	var lastErr error
	attempts := 1 + m.cfg.Retries
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("mirror: context canceled: %w", err)
		}
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("mirror: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		pubCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		lastErr = m.client.HSet(pubCtx, m.cfg.KeyPrefix+":"+snap.SchedulerID, fields).Err()
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("mirror: failed after %d attempts: %w", attempts, lastErr)
}

func flatten(n telemetry.NodeSnapshot, path string, out map[string]any) {
	out[path+":best_effort_count"] = n.BestEffortCount
	out[path+":is_empty"] = n.IsEmpty
	for i, child := range n.Children {
		flatten(child, fmt.Sprintf("%s/%d", path, i), out)
	}
}

// Close releases the mirror's Redis connection.
func (m *Mirror) Close() error {
	return m.client.Close()
}
