// Package telemetry exports point-in-time observations about a running
// scheduler: a tree snapshot (rendered by the inspect CLI command, and
// msgpack-encodable via Encode), and a Hive-partitioned export of terminal workload records via the
// teacher's Lode client shape. Nothing in this package feeds back into a
// scheduling decision (§5 "shared-resource policy", B.4 non-goals).
package telemetry

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/qdisc/qdisc"
)

// NodeSnapshot is a point-in-time view of one qdisc tree node, suitable for
// msgpack encoding and for the inspect CLI command's tree render.
type NodeSnapshot struct {
	Handle          uint64         `msgpack:"handle"`
	IsLeaf          bool           `msgpack:"is_leaf"`
	Kind            string         `msgpack:"kind,omitempty"`
	IsEmpty         bool           `msgpack:"is_empty"`
	BestEffortCount int            `msgpack:"best_effort_count"`
	ChildEmptiness  []bool         `msgpack:"child_emptiness,omitempty"`
	Children        []NodeSnapshot `msgpack:"children,omitempty"`
}

// Snapshot is a full tree snapshot plus the pool dimensions it was taken
// against.
type Snapshot struct {
	SchedulerID string       `msgpack:"scheduler_id"`
	PoolSize    int          `msgpack:"pool_size"`
	Root        NodeSnapshot `msgpack:"root"`
}

// innerWithBits is satisfied by *qdisc.Inner; kept narrow so this package
// doesn't need a qdisc.Classful type assertion failure path for every
// classless leaf it walks.
type innerWithBits interface {
	ChildEmptinessBits() []bool
}

// Capture walks root and returns an immutable Snapshot. It calls only the
// introspection-only surface of qdisc.Node/Classful (Children,
// BestEffortCount, IsEmpty, ChildEmptinessBits): never anything on the
// dequeue hot path.
func Capture(schedulerID string, poolSize int, root qdisc.Node) Snapshot {
	return Snapshot{
		SchedulerID: schedulerID,
		PoolSize:    poolSize,
		Root:        captureNode(root),
	}
}

func captureNode(n qdisc.Node) NodeSnapshot {
	snap := NodeSnapshot{
		Handle:          uint64(n.Handle()),
		IsEmpty:         n.IsEmpty(),
		BestEffortCount: n.BestEffortCount(),
	}

	classful, ok := n.(qdisc.Classful)
	if !ok {
		snap.IsLeaf = true
		return snap
	}

	snap.Kind = classful.Kind().String()
	if b, ok := classful.(innerWithBits); ok {
		snap.ChildEmptiness = b.ChildEmptinessBits()
	}
	for _, child := range classful.Children() {
		snap.Children = append(snap.Children, captureNode(child))
	}
	return snap
}

// Encode msgpack-encodes s. The inspect CLI command renders snapshots as
// JSON or a table and does not call Encode.
func Encode(s Snapshot) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("telemetry: encode snapshot: %w", err)
	}
	return b, nil
}

// Decode reverses Encode.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("telemetry: decode snapshot: %w", err)
	}
	return s, nil
}
