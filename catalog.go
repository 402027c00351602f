package assembly

import (
	"context"
	"sort"
	"sync"
)

// Factory builds runtime values from tagged declaration payloads. Build
// receives the raw payload (the tagged map, or the whole sequence when
// the declaration was a sequence led by a tagged map) and the resolver
// the request originated from, so implementations can resolve nested
// declarations through rc.Create.
type Factory interface {
	Build(ctx context.Context, raw any, rc *Resolver) (any, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, raw any, rc *Resolver) (any, error)

// Build dispatches to the underlying function.
func (fn FactoryFunc) Build(ctx context.Context, raw any, rc *Resolver) (any, error) {
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, raw, rc)
}

// Provider resolves parsed references for one protocol. Provide is always
// invoked with at least one reference and with the resolver the request
// originated from as context.
type Provider interface {
	Provide(ctx context.Context, refs []Ref, rc *Resolver) (any, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, refs []Ref, rc *Resolver) (any, error)

// Provide dispatches to the underlying function.
func (fn ProviderFunc) Provide(ctx context.Context, refs []Ref, rc *Resolver) (any, error) {
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, refs, rc)
}

// Materialized pairs a constructed value with its declaration and the
// label of the scope that built it.
type Materialized struct {
	Decl  *ObjectDecl
	Value any
	Scope string
}

// NamedCatalog is the concurrency-safe store of materialized named values
// held by one resolver. Insert overwrites idempotently, so concurrent
// rebuilds of the same name settle last-write-wins.
type NamedCatalog struct {
	mu      sync.RWMutex
	entries map[string]*Materialized
}

// NewNamedCatalog constructs an empty catalog.
func NewNamedCatalog() *NamedCatalog {
	return &NamedCatalog{entries: make(map[string]*Materialized)}
}

// Get returns the materialized value cached under name.
func (c *NamedCatalog) Get(name string) (*Materialized, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[name]
	return m, ok
}

// Insert stores m under its declaration name, replacing any previous entry.
func (c *NamedCatalog) Insert(m *Materialized) {
	if c == nil || m == nil || m.Decl == nil || m.Decl.Name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*Materialized)
	}
	c.entries[m.Decl.Name] = m
}

// ForEach visits cached entries sorted by name. Returning false stops the
// walk. Entries inserted while walking may or may not be visited.
func (c *NamedCatalog) ForEach(fn func(name string, m *Materialized) bool) {
	if c == nil || fn == nil {
		return
	}
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	for _, name := range names {
		m, ok := c.Get(name)
		if !ok {
			continue
		}
		if !fn(name, m) {
			return
		}
	}
}

// Len returns the number of cached entries.
func (c *NamedCatalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
