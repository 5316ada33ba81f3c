package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/justapithecus/qdisc/config"
	"github.com/justapithecus/qdisc/qdisc"
	"github.com/justapithecus/qdisc/workload"
)

func TestExpandEnv_SetVar(t *testing.T) {
	t.Setenv("QDISC_TEST_VAR", "hello")
	got := config.ExpandEnv("value: ${QDISC_TEST_VAR}")
	if want := "value: hello"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultUsedWhenUnset(t *testing.T) {
	got := config.ExpandEnv("value: ${QDISC_UNSET_VAR:-fallback}")
	if want := "value: fallback"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadParsesTopology(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	yaml := `
pool_size: 4
root:
  handle: 1
  kind: strict_priority
  children:
    - priority: 1
      node:
        handle: 2
        kind: leaf
    - priority: 2
      node:
        handle: 3
        kind: leaf
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write topology: %v", err)
	}

	top, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if top.PoolSize != 4 {
		t.Errorf("PoolSize = %d, want 4", top.PoolSize)
	}
	if len(top.Root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(top.Root.Children))
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/topology.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestBuildConstructsLiveTree(t *testing.T) {
	top := config.Topology{
		PoolSize: 2,
		Root: config.NodeConfig{
			Handle: 1,
			Kind:   "round_robin",
			Children: []config.ChildConfig{
				{Node: config.NodeConfig{Handle: 2, Kind: "leaf"}},
				{Node: config.NodeConfig{Handle: 3, Kind: "leaf"}},
			},
		},
	}

	root, err := config.Build(top, top.PoolSize, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var ran []string
	w := workload.New(func(ctx context.Context) (any, error) {
		ran = append(ran, "ok")
		return nil, nil
	})
	if err := root.TryEnqueueByHandle(2, w); err != nil {
		t.Fatalf("TryEnqueueByHandle: %v", err)
	}
	dw, ok := root.TryDequeue(0, false)
	if !ok {
		t.Fatal("expected a dequeue")
	}
	dw.Run()
	if len(ran) != 1 {
		t.Fatalf("expected the leaf's workload to run, got %v", ran)
	}
}

func TestBuildRejectsUnknownPredicate(t *testing.T) {
	top := config.Topology{
		PoolSize: 1,
		Root: config.NodeConfig{
			Handle:    1,
			Kind:      "round_robin",
			Predicate: "does-not-exist",
		},
	}
	if _, err := config.Build(top, 1, map[string]qdisc.Predicate{}); err == nil {
		t.Fatal("expected an error for an unregistered predicate name")
	}
}
