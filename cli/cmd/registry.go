package cmd

import (
	"github.com/justapithecus/qdisc/qdisc"
)

// demoPredicates is the fixed set of classification predicates a demo
// topology file can reference by name. Real embedders register their own
// predicates directly against config.Build; this registry exists only so
// qdiscctl's bundled demo topologies are self-contained.
var demoPredicates = map[string]qdisc.Predicate{
	"even": func(state qdisc.ClassifyState) bool {
		n, ok := state.(int)
		return ok && n%2 == 0
	},
	"odd": func(state qdisc.ClassifyState) bool {
		n, ok := state.(int)
		return ok && n%2 != 0
	},
	"high_priority": func(state qdisc.ClassifyState) bool {
		s, ok := state.(string)
		return ok && s == "high"
	},
}

// PredicateInfo describes one registered predicate for the list command.
type PredicateInfo struct {
	Name string `json:"name"`
}

func listPredicates() []PredicateInfo {
	out := make([]PredicateInfo, 0, len(demoPredicates))
	for name := range demoPredicates {
		out = append(out, PredicateInfo{Name: name})
	}
	return out
}

// KindInfo describes one supported qdisc node kind for the list command.
type KindInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func listKinds() []KindInfo {
	return []KindInfo{
		{Name: "leaf", Description: "classless FIFO queue"},
		{Name: "round_robin", Description: "classful, rotates across children"},
		{Name: "strict_priority", Description: "classful, drains higher-priority children first"},
	}
}
