package config

import (
	"fmt"

	"github.com/justapithecus/qdisc/qdisc"
)

// Build constructs a live qdisc tree from top, resolving each node's
// Predicate name against predicates. maxWorkers bounds every classful
// node's backtracking cache and should match the worker pool the tree will
// be scheduled with. The returned node is the tree's root.
func Build(top Topology, maxWorkers int, predicates map[string]qdisc.Predicate) (*qdisc.Inner, error) {
	node, err := buildNode(top.Root, maxWorkers, predicates)
	if err != nil {
		return nil, err
	}
	root, ok := node.(*qdisc.Inner)
	if !ok {
		return nil, fmt.Errorf("config: root node (handle %d) must be classful, got kind %q", top.Root.Handle, top.Root.Kind)
	}
	return root, nil
}

func buildNode(nc NodeConfig, maxWorkers int, predicates map[string]qdisc.Predicate) (qdisc.Node, error) {
	if nc.Kind == "leaf" {
		return qdisc.NewLeaf(qdisc.Handle(nc.Handle)), nil
	}

	kind, err := parseKind(nc.Kind)
	if err != nil {
		return nil, fmt.Errorf("handle %d: %w", nc.Handle, err)
	}

	var predicate qdisc.Predicate
	if nc.Predicate != "" {
		p, ok := predicates[nc.Predicate]
		if !ok {
			return nil, fmt.Errorf("handle %d: unknown predicate %q", nc.Handle, nc.Predicate)
		}
		predicate = p
	}

	inner, err := qdisc.NewInner(qdisc.Handle(nc.Handle), kind, qdisc.BitmapVariant, maxWorkers, predicate)
	if err != nil {
		return nil, fmt.Errorf("handle %d: %w", nc.Handle, err)
	}

	for _, cc := range nc.Children {
		child, err := buildNode(cc.Node, maxWorkers, predicates)
		if err != nil {
			return nil, err
		}
		if err := inner.TryAddChild(child, cc.Priority); err != nil {
			return nil, fmt.Errorf("handle %d: add child %d: %w", nc.Handle, cc.Node.Handle, err)
		}
	}
	return inner, nil
}

func parseKind(s string) (qdisc.Kind, error) {
	switch s {
	case "round_robin", "":
		return qdisc.RoundRobin, nil
	case "strict_priority":
		return qdisc.StrictPriority, nil
	default:
		return 0, fmt.Errorf("unknown qdisc kind %q", s)
	}
}
