package assembly

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-assembly/pkg/events"
)

// Resolver walks a chain of scope definitions to construct values, look
// up named objects, and lazily rebuild inherited objects invalidated by
// an override. The cache is the only mutable state; everything else is
// fixed at construction. The parent link is held, never owned: a leaf
// resolver is discarded while its ancestors keep serving other chains.
type Resolver struct {
	label   string
	id      string
	baseDir string
	def     *Definition
	parent  *Resolver

	cache  *NamedCatalog
	flight singleflight.Group
	logger ResolutionLogger
	hooks  events.Hooks
}

// ResolverOption configures a resolver at construction.
type ResolverOption func(*Resolver)

// WithParent links the resolver to the next scope outward.
func WithParent(parent *Resolver) ResolverOption {
	return func(r *Resolver) {
		r.parent = parent
	}
}

// WithBaseDir sets the opaque base directory providers may use to anchor
// relative paths. The engine itself never interprets it.
func WithBaseDir(dir string) ResolverOption {
	return func(r *Resolver) {
		r.baseDir = dir
	}
}

// WithResolverID overrides the generated resolver ID.
func WithResolverID(id string) ResolverOption {
	return func(r *Resolver) {
		if id != "" {
			r.id = id
		}
	}
}

// WithHooks attaches lifecycle hooks notified on materialize and rebuild.
// Hooks are cloned and nil entries dropped so the resolver's set stays
// immutable.
func WithHooks(hooks ...events.Hook) ResolverOption {
	return func(r *Resolver) {
		r.hooks = normalizeHooks(hooks)
	}
}

func normalizeHooks(hooks []events.Hook) events.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make(events.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

// NewResolver wraps def as the runtime scope labeled label. The label
// tags every value materialized here and shows up in traces, logs and
// events.
func NewResolver(label string, def *Definition, opts ...ResolverOption) (*Resolver, error) {
	if label == "" {
		return nil, ErrLabelRequired
	}
	if def == nil {
		return nil, ErrDefinitionRequired
	}
	r := &Resolver{
		label:  label,
		def:    def,
		cache:  NewNamedCatalog(),
		logger: noopResolutionLogger{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	return r, nil
}

// Label returns the scope label.
func (r *Resolver) Label() string {
	if r == nil {
		return ""
	}
	return r.label
}

// ID returns the unique resolver identifier.
func (r *Resolver) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// BaseDir returns the opaque base directory handed to providers.
func (r *Resolver) BaseDir() string {
	if r == nil {
		return ""
	}
	return r.baseDir
}

// Definition returns the immutable definition this resolver wraps.
func (r *Resolver) Definition() *Definition {
	if r == nil {
		return nil
	}
	return r.def
}

// Parent returns the next resolver outward, nil at the root.
func (r *Resolver) Parent() *Resolver {
	if r == nil {
		return nil
	}
	return r.parent
}

// Cache exposes the materialized values held at this scope.
func (r *Resolver) Cache() *NamedCatalog {
	if r == nil {
		return nil
	}
	return r.cache
}

// Create constructs a runtime value from a tagged-or-reference input,
// dispatching on shape. Inputs the engine does not recognize pass
// through unchanged; selection failures for recognized shapes are hard
// errors that leave the resolver usable.
func (r *Resolver) Create(ctx context.Context, input any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch typed := input.(type) {
	case []any:
		return r.createSequence(ctx, typed)
	case string:
		ref, ok := TryParseRef(typed)
		if !ok {
			return typed, nil
		}
		return r.provide(ctx, []Ref{ref}, typed)
	case map[string]any:
		tag, ok := typeTagOf(typed)
		if !ok {
			return typed, nil
		}
		return r.build(ctx, tag, typed)
	default:
		return input, nil
	}
}

// createSequence resolves a sequence wholesale: a sequence led by a
// reference string must be all references or it passes through
// unchanged; a sequence led by a tagged object goes to that factory with
// the entire slice.
func (r *Resolver) createSequence(ctx context.Context, seq []any) (any, error) {
	if len(seq) == 0 {
		return seq, nil
	}
	switch first := seq[0].(type) {
	case string:
		if _, ok := TryParseRef(first); !ok {
			return seq, nil
		}
		refs := make([]Ref, 0, len(seq))
		for _, item := range seq {
			s, ok := item.(string)
			if !ok {
				return seq, nil
			}
			ref, ok := TryParseRef(s)
			if !ok {
				return seq, nil
			}
			refs = append(refs, ref)
		}
		return r.provide(ctx, refs, seq)
	case map[string]any:
		tag, ok := typeTagOf(first)
		if !ok {
			return seq, nil
		}
		return r.build(ctx, tag, seq)
	default:
		return seq, nil
	}
}

// provide selects a provider for the first reference's protocol, walking
// this scope outward, and invokes it with every reference. References
// into the named object space are served by the engine through Get.
func (r *Resolver) provide(ctx context.Context, refs []Ref, echo any) (any, error) {
	protocol := refs[0].Protocol
	start := time.Now()

	if protocol == ObjectProtocol {
		value, err := r.provideObjects(ctx, refs)
		r.logEvent("provide "+protocol, refName(refs), start, err)
		return value, err
	}

	decl, ok := r.selectProvider(protocol)
	if !ok {
		err := &UnsupportedProtocolError{Protocol: protocol, Input: echo}
		r.logEvent("provide "+protocol, refName(refs), start, err)
		return nil, err
	}
	value, err := decl.Provider.Provide(ctx, refs, r)
	err = wrapResolverError("provider "+protocol, err)
	r.logEvent("provide "+protocol, refName(refs), start, err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func refName(refs []Ref) string {
	if len(refs) == 0 {
		return ""
	}
	return refs[0].Path
}

// provideObjects resolves one or more object references through Get. A
// single reference yields the bare value, several yield a slice in
// reference order. An absent name is a hard error here: the caller asked
// for a specific object, unlike Get's defined absence.
func (r *Resolver) provideObjects(ctx context.Context, refs []Ref) (any, error) {
	if len(refs) == 1 {
		return r.objectValue(ctx, refs[0].Path)
	}
	values := make([]any, 0, len(refs))
	for _, ref := range refs {
		value, err := r.objectValue(ctx, ref.Path)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func (r *Resolver) objectValue(ctx context.Context, name string) (any, error) {
	m, ok, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &UnknownObjectError{Name: name}
	}
	return m.Value, nil
}

// build selects a factory for tag, walking this scope outward, and
// invokes it with the raw payload.
func (r *Resolver) build(ctx context.Context, tag string, raw any) (any, error) {
	start := time.Now()
	decl, ok := r.selectFactory(tag)
	if !ok {
		err := &UnsupportedTypeError{Type: tag, Input: raw}
		r.logEvent("build "+tag, tag, start, err)
		return nil, err
	}
	value, err := decl.Factory.Build(ctx, raw, r)
	err = wrapResolverError("factory "+tag, err)
	r.logEvent("build "+tag, tag, start, err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// selectFactory walks the chain from this scope outward and returns the
// first declaration whose scope registers the type locally.
func (r *Resolver) selectFactory(name string) (TypeDecl, bool) {
	budget := r.def.HopBudget()
	for s := r; s != nil; s = s.parent {
		if decl, ok := s.def.typeFor(name); ok {
			return decl, true
		}
		if budget == 0 {
			break
		}
		budget--
	}
	return TypeDecl{}, false
}

// selectProvider walks the chain from this scope outward and returns the
// first declaration whose scope registers the protocol locally.
func (r *Resolver) selectProvider(name string) (ProviderDecl, bool) {
	budget := r.def.HopBudget()
	for s := r; s != nil; s = s.parent {
		if decl, ok := s.def.providerFor(name); ok {
			return decl, true
		}
		if budget == 0 {
			break
		}
		budget--
	}
	return ProviderDecl{}, false
}

// Get returns the named object visible at or above this scope. Absence
// is a defined result, not an error. An inherited object whose recorded
// dependencies are overridden between its owner and this scope is
// rebuilt here, with this resolver as context, so the override takes
// effect; otherwise the owner's value is shared as-is.
func (r *Resolver) Get(ctx context.Context, name string) (*Materialized, bool, error) {
	m, ok, err := r.lookup(ctx, name, nil)
	return m, ok, err
}

func (r *Resolver) lookup(ctx context.Context, name string, trace *ResolutionTrace) (*Materialized, bool, error) {
	if r == nil || name == "" {
		return nil, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	if m, ok := r.cache.Get(name); ok {
		trace.markServed(0, false)
		r.logEvent("get", name, start, nil)
		return m, true, nil
	}

	ctx, err := pushResolveStack(ctx, name)
	if err != nil {
		r.logEvent("get", name, start, err)
		return nil, false, err
	}

	depth := 0
	budget := r.def.HopBudget()
	for s := r; s != nil; s = s.parent {
		decl, found := s.lookupLocal(name)
		if found {
			if depth == 0 || !r.checkOverrides(decl, depth, trace) {
				m, err := s.materialize(ctx, decl)
				trace.markServed(depth, false)
				r.logEvent("get", name, start, err)
				if err != nil {
					return nil, false, err
				}
				return m, true, nil
			}
			m, err := r.rebuild(ctx, decl)
			trace.markServed(depth, true)
			r.logEvent("rebuild", name, start, err)
			if err != nil {
				return nil, false, err
			}
			return m, true, nil
		}
		if budget == 0 {
			break
		}
		budget--
		depth++
	}

	r.logEvent("get", name, start, nil)
	return nil, false, nil
}

// lookupLocal finds the declaration behind name at this single scope,
// preferring the cached materialization's declaration so rebuild checks
// use the same dependency sets the cache entry was built from.
func (r *Resolver) lookupLocal(name string) (*ObjectDecl, bool) {
	if m, ok := r.cache.Get(name); ok {
		return m.Decl, true
	}
	return r.def.Object(name)
}

// materialize builds decl with this resolver as context and caches the
// result locally. Concurrent builds of the same name at the same scope
// collapse into one; replays settle last-write-wins, which is safe
// because rebuilding the same declaration is deterministic.
func (r *Resolver) materialize(ctx context.Context, decl *ObjectDecl) (*Materialized, error) {
	return r.buildObject(ctx, decl, events.VerbMaterialize)
}

// rebuild materializes an inherited declaration at this requesting scope
// so overrides between the owner and here take effect.
func (r *Resolver) rebuild(ctx context.Context, decl *ObjectDecl) (*Materialized, error) {
	return r.buildObject(ctx, decl, events.VerbRebuild)
}

func (r *Resolver) buildObject(ctx context.Context, decl *ObjectDecl, verb string) (*Materialized, error) {
	key := r.label + "\x00" + decl.Name
	v, err, _ := r.flight.Do(key, func() (any, error) {
		if m, ok := r.cache.Get(decl.Name); ok && m.Decl == decl {
			return m, nil
		}
		value, err := r.Create(ctx, decl.Raw)
		if err != nil {
			return nil, wrapResolutionError("materialize", r.label, decl.Name, err)
		}
		m := &Materialized{Decl: decl, Value: value, Scope: r.label}
		r.cache.Insert(m)
		r.notify(ctx, verb, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Materialized), nil
}

// needsUpdate reports whether any dependency recorded on decl is
// overridden within depth-1 hops of this scope, the span between the
// requester and the found object's owner. The budget excludes the owner
// itself: an object's original declaration is not an override of it. A
// root resolver never updates, and declarations without computed
// dependency sets never invalidate.
func (r *Resolver) needsUpdate(decl *ObjectDecl, depth int) bool {
	return r.checkOverrides(decl, depth, nil)
}

func (r *Resolver) checkOverrides(decl *ObjectDecl, depth int, trace *ResolutionTrace) bool {
	if r.parent == nil {
		return false
	}
	if decl == nil || decl.Deps == nil {
		return false
	}
	budget := depth - 1
	hit := false
	for _, name := range decl.Deps.Types {
		_, ok := r.def.TypeDef(name, budget)
		trace.recordCheck(DepKindType, name, ok)
		if ok {
			if trace == nil {
				return true
			}
			hit = true
		}
	}
	for _, name := range decl.Deps.Protocols {
		_, ok := r.def.ProviderDef(name, budget)
		trace.recordCheck(DepKindProtocol, name, ok)
		if ok {
			if trace == nil {
				return true
			}
			hit = true
		}
	}
	for _, name := range decl.Deps.Objects {
		_, ok := r.def.ObjectDef(name, budget)
		trace.recordCheck(DepKindObject, name, ok)
		if ok {
			if trace == nil {
				return true
			}
			hit = true
		}
	}
	return hit
}

// ForEach visits every named object visible from this scope outward,
// nearest scope first, each distinct name exactly once; shadowed
// ancestor entries are skipped. Cached entries are visited as
// materialized values, declared-only entries as raw declaration values;
// no rebuilds are triggered. Returning false stops the walk.
func (r *Resolver) ForEach(fn func(name string, value any) bool) {
	if r == nil || fn == nil {
		return
	}
	seen := make(map[string]struct{})
	budget := r.def.HopBudget()
	for s := r; s != nil; s = s.parent {
		stopped := false
		s.cache.ForEach(func(name string, m *Materialized) bool {
			if _, dup := seen[name]; dup {
				return true
			}
			seen[name] = struct{}{}
			if !fn(name, m.Value) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
		for _, decl := range s.def.Objects() {
			if _, dup := seen[decl.Name]; dup {
				continue
			}
			seen[decl.Name] = struct{}{}
			if !fn(decl.Name, decl.Raw) {
				return
			}
		}
		if budget == 0 {
			break
		}
		budget--
	}
}

func (r *Resolver) notify(ctx context.Context, verb string, m *Materialized) {
	if !r.hooks.Enabled() {
		return
	}
	event := events.BuildObjectEvent(verb, events.ObjectEventInput{
		Scope:      r.label,
		ResolverID: r.id,
		Object:     m.Decl.Name,
		Value:      m.Value,
	})
	if err := r.hooks.Notify(ctx, event); err != nil {
		r.logger.LogResolution(ResolutionLogEvent{
			Op:    "notify",
			Scope: r.label,
			Name:  m.Decl.Name,
			Err:   err,
		})
	}
}

func (r *Resolver) logEvent(op, name string, start time.Time, err error) {
	r.logger.LogResolution(ResolutionLogEvent{
		Op:       op,
		Scope:    r.label,
		Name:     name,
		Duration: time.Since(start),
		Err:      err,
	})
}

type resolveStackKey struct{}

// pushResolveStack guards Get against reference cycles that static
// analysis never saw, which happens for request scopes where analysis is
// skipped. The visiting set travels on the context so recursion through
// providers and factories stays covered.
func pushResolveStack(ctx context.Context, name string) (context.Context, error) {
	stack, _ := ctx.Value(resolveStackKey{}).([]string)
	for i := range stack {
		if stack[i] == name {
			cycle := append([]string(nil), stack[i:]...)
			cycle = append(cycle, name)
			return nil, &ResolveCycleError{Path: cycle}
		}
	}
	next := make([]string, 0, len(stack)+1)
	next = append(next, stack...)
	next = append(next, name)
	return context.WithValue(ctx, resolveStackKey{}, next), nil
}

// currentObjectName reports the object being materialized on this
// context, or empty when Create was invoked directly.
func currentObjectName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	stack, _ := ctx.Value(resolveStackKey{}).([]string)
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}
