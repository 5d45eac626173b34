package taskfn

import (
	"maps"
	"slices"
	"sync"
)

// Registry is a catalog of declared tools keyed by identity. Tasks read it through
// Snapshot, so registering while tasks run never exposes a partially updated view.
// Registration is expected to happen before the first task call.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolEntry)}
}

// Register adds an entry. If an entry with the same identity already exists, it is replaced.
// Safe for concurrent use with Snapshot and other Register calls.
func (r *Registry) Register(e ToolEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[e.Identity] = e.clone()
}

// Lookup returns the entry with the given identity, or (ToolEntry{}, false) if not found.
func (r *Registry) Lookup(identity string) (ToolEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[identity]
	if !ok {
		return ToolEntry{}, false
	}
	return e.clone(), true
}

// Snapshot returns an independent copy of all entries. Mutating the copy never affects
// the registry or other snapshots.
func (r *Registry) Snapshot() map[string]ToolEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ToolEntry, len(r.tools))
	for id, e := range r.tools {
		out[id] = e.clone()
	}
	return out
}

// Entries returns all entries sorted by identity for deterministic order (e.g. prompt rendering).
func (r *Registry) Entries() []ToolEntry {
	return sortedEntries(r.Snapshot())
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func sortedEntries(m map[string]ToolEntry) []ToolEntry {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]ToolEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
