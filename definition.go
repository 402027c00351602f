package assembly

// DefaultHopBudget bounds ancestor-chain walks. The budget counts parent
// hops still allowed, so budget 0 checks only the local scope. Real
// chains are two or three deep; the bound guards pathological ones.
const DefaultHopBudget = 32

// Definition is the immutable per-scope catalog of factory, provider and
// named-value declarations. The parent link is consulted only during
// dependency validation, never for runtime construction. Once
// constructed and analyzed a definition is never mutated.
type Definition struct {
	level     ScopeLevel
	parent    *Definition
	hopBudget int

	types     map[string]TypeDecl
	providers map[string]ProviderDecl
	objects   map[string]*ObjectDecl

	typeOrder     []string
	providerOrder []string
	objectOrder   []string
}

// DefinitionOption configures definition construction.
type DefinitionOption func(*definitionConfig)

type definitionConfig struct {
	parent    *Definition
	types     []TypeDecl
	providers []ProviderDecl
	objects   []ObjectEntry
	hopBudget int
	analyze   *bool
}

// WithParentDefinition links the definition under construction to its
// ancestor so dependency validation can resolve inherited names.
func WithParentDefinition(parent *Definition) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.parent = parent
	}
}

// WithTypes appends factory declarations. Within one scope a later
// declaration with the same name silently replaces the earlier one.
func WithTypes(decls ...TypeDecl) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.types = append(cfg.types, decls...)
	}
}

// WithProviders appends provider declarations, last-wins like WithTypes.
func WithProviders(decls ...ProviderDecl) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.providers = append(cfg.providers, decls...)
	}
}

// WithObjects appends named-value declarations, last-wins like WithTypes.
func WithObjects(entries ...ObjectEntry) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.objects = append(cfg.objects, entries...)
	}
}

// WithDependencyAnalysis overrides the level default for running
// dependency analysis at construction time.
func WithDependencyAnalysis(enabled bool) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.analyze = &enabled
	}
}

// WithHopBudget overrides DefaultHopBudget for ancestor lookups made by
// this definition and the resolvers wrapping it.
func WithHopBudget(budget int) DefinitionOption {
	return func(cfg *definitionConfig) {
		if budget > 0 {
			cfg.hopBudget = budget
		}
	}
}

// NewDefinition builds the three lookup mappings and, when analysis is
// enabled (the default for global and application levels), extracts,
// validates and closes every object's dependency set. Analysis failures
// abort construction entirely: there is no partial scope.
func NewDefinition(level ScopeLevel, opts ...DefinitionOption) (*Definition, error) {
	if level == LevelUnknown {
		return nil, ErrUnknownScopeLevel
	}

	cfg := definitionConfig{hopBudget: DefaultHopBudget}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	def := &Definition{
		level:     level,
		parent:    cfg.parent,
		hopBudget: cfg.hopBudget,
		types:     make(map[string]TypeDecl, len(cfg.types)),
		providers: make(map[string]ProviderDecl, len(cfg.providers)),
		objects:   make(map[string]*ObjectDecl, len(cfg.objects)),
	}

	for _, decl := range cfg.types {
		if decl.Name == "" {
			continue
		}
		if _, seen := def.types[decl.Name]; !seen {
			def.typeOrder = append(def.typeOrder, decl.Name)
		}
		def.types[decl.Name] = decl
	}
	for _, decl := range cfg.providers {
		if decl.Name == "" {
			continue
		}
		if _, seen := def.providers[decl.Name]; !seen {
			def.providerOrder = append(def.providerOrder, decl.Name)
		}
		def.providers[decl.Name] = decl
	}
	for _, entry := range cfg.objects {
		if entry.Name == "" {
			continue
		}
		if _, seen := def.objects[entry.Name]; !seen {
			def.objectOrder = append(def.objectOrder, entry.Name)
		}
		def.objects[entry.Name] = &ObjectDecl{Name: entry.Name, Raw: entry.Value}
	}

	enabled := level.AnalysisEnabled()
	if cfg.analyze != nil {
		enabled = *cfg.analyze
	}
	if enabled {
		if err := def.analyze(); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// Level returns the scope level the definition was built for.
func (d *Definition) Level() ScopeLevel {
	if d == nil {
		return LevelUnknown
	}
	return d.level
}

// Parent returns the ancestor definition used for dependency validation.
func (d *Definition) Parent() *Definition {
	if d == nil {
		return nil
	}
	return d.parent
}

// HopBudget returns the ancestor-walk budget configured at construction.
func (d *Definition) HopBudget() int {
	if d == nil {
		return DefaultHopBudget
	}
	return d.hopBudget
}

// TypeDef returns the nearest factory declaration for name, walking at
// most budget parent hops beyond the local scope.
func (d *Definition) TypeDef(name string, budget int) (TypeDecl, bool) {
	if d == nil || name == "" {
		return TypeDecl{}, false
	}
	if decl, ok := d.types[name]; ok {
		return decl, true
	}
	if budget <= 0 || d.parent == nil {
		return TypeDecl{}, false
	}
	return d.parent.TypeDef(name, budget-1)
}

// ProviderDef returns the nearest provider declaration for name, walking
// at most budget parent hops beyond the local scope.
func (d *Definition) ProviderDef(name string, budget int) (ProviderDecl, bool) {
	if d == nil || name == "" {
		return ProviderDecl{}, false
	}
	if decl, ok := d.providers[name]; ok {
		return decl, true
	}
	if budget <= 0 || d.parent == nil {
		return ProviderDecl{}, false
	}
	return d.parent.ProviderDef(name, budget-1)
}

// ObjectDef returns the nearest named-value declaration for name, walking
// at most budget parent hops beyond the local scope.
func (d *Definition) ObjectDef(name string, budget int) (*ObjectDecl, bool) {
	if d == nil || name == "" {
		return nil, false
	}
	if decl, ok := d.objects[name]; ok {
		return decl, true
	}
	if budget <= 0 || d.parent == nil {
		return nil, false
	}
	return d.parent.ObjectDef(name, budget-1)
}

// SupportsType reports whether this scope itself registers a factory for
// name. Ancestors are not consulted; chain walks belong to the resolver.
func (d *Definition) SupportsType(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.types[name]
	return ok
}

// SupportsProtocol reports whether this scope itself registers a provider
// for name.
func (d *Definition) SupportsProtocol(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.providers[name]
	return ok
}

// Object returns this scope's own declaration for name.
func (d *Definition) Object(name string) (*ObjectDecl, bool) {
	if d == nil {
		return nil, false
	}
	decl, ok := d.objects[name]
	return decl, ok
}

// Objects returns this scope's own declarations in declaration order.
func (d *Definition) Objects() []*ObjectDecl {
	if d == nil {
		return nil
	}
	out := make([]*ObjectDecl, 0, len(d.objectOrder))
	for _, name := range d.objectOrder {
		out = append(out, d.objects[name])
	}
	return out
}

// TypeNames returns this scope's own factory names in declaration order.
func (d *Definition) TypeNames() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.typeOrder))
	copy(out, d.typeOrder)
	return out
}

// ProviderNames returns this scope's own provider names in declaration order.
func (d *Definition) ProviderNames() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.providerOrder))
	copy(out, d.providerOrder)
	return out
}

func (d *Definition) typeFor(name string) (TypeDecl, bool) {
	if d == nil {
		return TypeDecl{}, false
	}
	decl, ok := d.types[name]
	return decl, ok
}

func (d *Definition) providerFor(name string) (ProviderDecl, bool) {
	if d == nil {
		return ProviderDecl{}, false
	}
	decl, ok := d.providers[name]
	return decl, ok
}
