package testutil

import (
	"github.com/skosovsky/taskfn"
)

// NewTestRegistry returns a Registry pre-filled with entries, suitable for tests.
func NewTestRegistry(entries ...taskfn.ToolEntry) *taskfn.Registry {
	reg := taskfn.NewRegistry()
	for _, e := range entries {
		reg.Register(e)
	}
	return reg
}

// NewTestPipeline returns a Pipeline over client and a fresh registry, failing the test on error.
func NewTestPipeline(t TB, client taskfn.Client, opts ...taskfn.Option) *taskfn.Pipeline {
	t.Helper()
	p, err := taskfn.NewPipeline(client, taskfn.NewRegistry(), opts...)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

// TB is the subset of testing.TB used by the helpers.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}
