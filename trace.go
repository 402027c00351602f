package assembly

import (
	"context"
	"encoding/json"
	"time"
)

// Dependency kinds recorded by trace checks.
const (
	DepKindType     = "type"
	DepKindProtocol = "protocol"
	DepKindObject   = "object"
)

// ResolutionTrace captures how one lookup settled: which scope served
// the value, whether an override forced a rebuild, and every dependency
// check consulted along the way.
type ResolutionTrace struct {
	Name       string     `json:"name"`
	Requester  string     `json:"requester"`
	ResolverID string     `json:"resolver_id,omitempty"`
	Found      bool       `json:"found"`
	ServedBy   string     `json:"served_by,omitempty"`
	Depth      int        `json:"depth"`
	Rebuilt    bool       `json:"rebuilt"`
	Checks     []DepCheck `json:"checks,omitempty"`
	At         time.Time  `json:"at"`
}

// DepCheck records one override probe made while deciding whether an
// inherited object is stale.
type DepCheck struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Overridden bool   `json:"overridden"`
}

func (t *ResolutionTrace) recordCheck(kind, name string, overridden bool) {
	if t == nil {
		return
	}
	t.Checks = append(t.Checks, DepCheck{Kind: kind, Name: name, Overridden: overridden})
}

func (t *ResolutionTrace) markServed(depth int, rebuilt bool) {
	if t == nil {
		return
	}
	t.Depth = depth
	t.Rebuilt = rebuilt
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t ResolutionTrace) ToJSON() ([]byte, error) {
	type alias ResolutionTrace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated
// via ToJSON.
func TraceFromJSON(payload []byte) (ResolutionTrace, error) {
	type alias ResolutionTrace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return ResolutionTrace{}, err
	}
	return ResolutionTrace(trace), nil
}

// Explain resolves name exactly like Get while recording the decision
// path. The trace is returned even when the name is absent so callers
// can log the miss.
func (r *Resolver) Explain(ctx context.Context, name string) (*ResolutionTrace, bool, error) {
	trace := &ResolutionTrace{
		Name:       name,
		Requester:  r.Label(),
		ResolverID: r.ID(),
		At:         time.Now().UTC(),
	}
	m, ok, err := r.lookup(ctx, name, trace)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return trace, false, nil
	}
	trace.Found = true
	trace.ServedBy = m.Scope
	return trace, true, nil
}
