package events

import "time"

// Verbs emitted by resolvers and chains.
const (
	VerbMaterialize    = "object.materialized"
	VerbRebuild        = "object.rebuilt"
	VerbResolverCreate = "resolver.created"
)

// ObjectEventInput carries the fields shared by resolver events.
type ObjectEventInput struct {
	Scope      string
	ResolverID string
	Object     string
	Value      any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildObjectEvent builds an event for the given verb from the input.
func BuildObjectEvent(verb string, input ObjectEventInput) Event {
	return Event{
		Verb:       verb,
		Scope:      input.Scope,
		ResolverID: input.ResolverID,
		Object:     input.Object,
		Value:      input.Value,
		Metadata:   input.Metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildMaterializedEvent builds an event recording a shared materialization.
func BuildMaterializedEvent(input ObjectEventInput) Event {
	return BuildObjectEvent(VerbMaterialize, input)
}

// BuildRebuiltEvent builds an event recording an override-driven rebuild.
func BuildRebuiltEvent(input ObjectEventInput) Event {
	return BuildObjectEvent(VerbRebuild, input)
}

// BuildResolverCreatedEvent builds an event recording a new resolver in a
// chain.
func BuildResolverCreatedEvent(input ObjectEventInput) Event {
	return BuildObjectEvent(VerbResolverCreate, input)
}
