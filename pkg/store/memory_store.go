package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests, examples, and processes
// that do not need durable snapshots. Container values (maps, slices)
// are cloned on both save and load so callers cannot mutate stored
// state through shared references.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	ref   Ref
	value any
	meta  Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (any, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return cloneValue(record.value), cloneMeta(record.meta), true, nil
}

// Save stores the snapshot. A missing SnapshotID gets a fresh UUID and
// a zero UpdatedAt gets the current time, so every saved revision is
// individually traceable.
func (s *MemoryStore) Save(_ context.Context, ref Ref, value any, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	stamped := cloneMeta(meta)
	if stamped.SnapshotID == "" {
		stamped.SnapshotID = uuid.NewString()
	}
	if stamped.UpdatedAt.IsZero() {
		stamped.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	s.records[key] = memoryRecord{ref: ref, value: cloneValue(value), meta: stamped}
	s.mu.Unlock()
	return cloneMeta(stamped), nil
}

// List returns the refs recorded for scope, sorted by identifier. An
// empty scope lists everything.
func (s *MemoryStore) List(_ context.Context, scope string) ([]Ref, error) {
	s.mu.RLock()
	refs := make([]Ref, 0, len(s.records))
	for _, record := range s.records {
		if scope != "" && record.ref.Scope != scope {
			continue
		}
		refs = append(refs, record.ref)
	}
	s.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Scope != refs[j].Scope {
			return refs[i].Scope < refs[j].Scope
		}
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

// cloneValue copies the container levels of a snapshot. Leaf values are
// shared; scalar leaves are immutable and struct leaves stay the
// caller's responsibility.
func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
