package store

import (
	"context"
	"fmt"

	"github.com/goliatone/go-assembly/pkg/events"
)

// Recorder is an events.Hook that persists every materialized or
// rebuilt object value it observes. Wire it into a resolver with
// WithHooks and every build lands in the store under its scope label
// and object name.
type Recorder struct {
	store Store
}

// NewRecorder builds a recorder over store.
func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s}
}

// Notify persists materialization events and ignores everything else.
func (r *Recorder) Notify(ctx context.Context, event events.Event) error {
	if r == nil || r.store == nil {
		return nil
	}
	switch event.Verb {
	case events.VerbMaterialize, events.VerbRebuild:
	default:
		return nil
	}

	ref := Ref{Scope: event.Scope, Name: event.Object}
	meta := Meta{
		UpdatedAt: event.OccurredAt,
		Extra:     map[string]string{"resolver_id": event.ResolverID, "verb": event.Verb},
	}
	if _, err := r.store.Save(ctx, ref, event.Value, meta); err != nil {
		return fmt.Errorf("store: record %q in scope %q: %w", event.Object, event.Scope, err)
	}
	return nil
}
