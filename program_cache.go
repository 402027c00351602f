package assembly

import "sync"

// ProgramCache stores compiled expression programs keyed by source text.
// Expression providers consult it before compiling; a nil cache disables
// reuse without disabling evaluation.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a ProgramCache backed by a sync.Map so one cache
// can be shared by providers serving concurrent resolvers.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache constructs an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

// Get returns the program compiled for key.
func (c *MemoryProgramCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.programs.Load(key)
}

// Set stores the program compiled for key.
func (c *MemoryProgramCache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.programs.Store(key, value)
}
