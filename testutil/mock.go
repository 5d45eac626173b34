// Package testutil provides test helpers for taskfn (e.g. MockClient).
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/skosovsky/taskfn"
)

// MockClient is a configurable taskfn.Client for tests. It records every request it receives.
type MockClient struct {
	// Response is returned when GenerateFn is nil.
	Response string
	// Err is returned when GenerateFn is nil and Err is set.
	Err        error
	GenerateFn func(ctx context.Context, req *taskfn.Request) (string, error)

	calls atomic.Int64
	mu    sync.Mutex
	last  *taskfn.Request
}

// Generate records req and runs GenerateFn if set, otherwise returns Response or Err.
func (m *MockClient) Generate(ctx context.Context, req *taskfn.Request) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.last = req
	m.mu.Unlock()
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns how many times Generate was invoked.
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}

// LastRequest returns the most recent request, or nil if Generate was never invoked.
func (m *MockClient) LastRequest() *taskfn.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Ensure MockClient implements Client.
var _ taskfn.Client = (*MockClient)(nil)
