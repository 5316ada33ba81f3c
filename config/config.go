// Package config loads a declarative topology file describing a worker pool
// size and a static qdisc tree shape, the way the teacher's cli/config loads
// a quarry.yaml. It sits outside the core library's contract (the core has
// no file formats) and exists only to drive the demo cmd/qdiscctl CLI.
package config

// Topology is the top-level shape of a topology YAML file.
type Topology struct {
	PoolSize int        `yaml:"pool_size"`
	Root     NodeConfig `yaml:"root"`
}

// NodeConfig describes one node in the static tree. Kind selects the node
// type: "leaf" (classless FIFO), "round_robin", or "strict_priority"
// (classful). Predicate names a classification predicate registered by the
// caller at build time; it is meaningless for "leaf" nodes and optional for
// classful ones (an empty predicate makes the node a catch-all).
type NodeConfig struct {
	Handle    uint64         `yaml:"handle"`
	Kind      string         `yaml:"kind"`
	Predicate string         `yaml:"predicate,omitempty"`
	Children  []ChildConfig  `yaml:"children,omitempty"`
}

// ChildConfig wraps a child NodeConfig with the priority used to register it
// under a strict_priority parent. Priority is ignored under a round_robin
// parent.
type ChildConfig struct {
	Priority int        `yaml:"priority,omitempty"`
	Node     NodeConfig `yaml:"node"`
}
