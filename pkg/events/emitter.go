package events

import "context"

// Config controls emitter behavior.
type Config struct {
	// Enabled gates emission; a disabled emitter drops events silently.
	Enabled bool
	// DefaultScope is applied to events that carry no scope label.
	DefaultScope string
}

// Emitter wraps a hook set with an enabled gate and scope defaulting.
// Hosts that assemble resolvers can share a single emitter across scopes.
type Emitter struct {
	hooks        Hooks
	enabled      bool
	defaultScope string
}

// NewEmitter builds an emitter over a copy of the given hooks.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	return &Emitter{
		hooks:        cloneHooks(hooks),
		enabled:      cfg.Enabled,
		defaultScope: cfg.DefaultScope,
	}
}

// Enabled reports whether the emitter will forward events.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && e.hooks.Enabled()
}

// Emit forwards the event to the hooks when the emitter is enabled.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if event.Scope == "" {
		event.Scope = e.defaultScope
	}
	return e.hooks.Notify(ctx, event)
}

func cloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	out := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		out = append(out, hook)
	}
	return out
}
