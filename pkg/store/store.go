package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrETagMismatch guards Mutate against concurrent snapshot updates.
var ErrETagMismatch = errors.New("store: etag mismatch")

// Ref identifies one persisted snapshot: the owning scope label plus
// the object name.
type Ref struct {
	Scope string
	Name  string
}

// Identifier returns the canonical storage key for this ref.
func (r Ref) Identifier() (string, error) {
	if r.Scope == "" {
		return "", fmt.Errorf("store: ref scope is required")
	}
	if r.Name == "" {
		return "", fmt.Errorf("store: ref name is required")
	}
	return fmt.Sprintf("%s/%s", r.Scope, r.Name), nil
}

// Meta is storage-owned metadata used for provenance and concurrency
// control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves snapshots for single refs. Implementations own
// all persistence decisions.
type Store interface {
	Load(ctx context.Context, ref Ref) (value any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, value any, meta Meta) (Meta, error)
	List(ctx context.Context, scope string) ([]Ref, error)
}

// Mutator receives the current snapshot (or nil when absent) and
// returns its replacement.
type Mutator func(current any, found bool) (any, error)

// Mutate loads one snapshot, applies fn, then saves the result. When
// both the caller's and the stored meta carry an ETag they must match.
func Mutate(ctx context.Context, s Store, ref Ref, meta Meta, fn Mutator) (any, Meta, error) {
	if s == nil {
		return nil, Meta{}, fmt.Errorf("store: store is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("store: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return nil, Meta{}, err
	}

	current, loadedMeta, ok, err := s.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("store: load %q in scope %q: %w", ref.Name, ref.Scope, err)
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	next, err := fn(current, ok)
	if err != nil {
		return nil, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	savedMeta, err := s.Save(ctx, ref, next, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("store: save %q in scope %q: %w", ref.Name, ref.Scope, err)
	}
	return next, savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
