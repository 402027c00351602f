package assembly

// TagField is the reserved key that marks a map as a tagged object and
// names the factory that builds it. All other keys are factory payload.
const TagField = "_type"

// TypeDecl registers a factory under a type name within one scope.
type TypeDecl struct {
	Name    string
	Factory Factory
}

// ProviderDecl registers a provider under a protocol name within one scope.
type ProviderDecl struct {
	Name     string
	Provider Provider
}

// ObjectEntry is the construction input for one named value: a name plus
// the raw tagged-or-reference declaration tree.
type ObjectEntry struct {
	Name  string
	Value any
}

// ObjectDecl is a named-value declaration owned by a Definition. Deps is
// computed once during dependency analysis and stays nil when the owning
// definition skipped analysis.
type ObjectDecl struct {
	Name string
	Raw  any
	Deps *DependencySet
}

// DependencySet records the names a declaration depends on, split by kind
// and sorted. Object dependencies are transitively closed, and the type
// and protocol sets include names reached through other objects' closures
// so override checks see indirect dependencies too.
type DependencySet struct {
	Types     []string
	Protocols []string
	Objects   []string
}

// Empty reports whether the set records no dependencies at all.
func (d *DependencySet) Empty() bool {
	if d == nil {
		return true
	}
	return len(d.Types) == 0 && len(d.Protocols) == 0 && len(d.Objects) == 0
}

// HasType reports whether name is a recorded type dependency.
func (d *DependencySet) HasType(name string) bool {
	return d != nil && containsName(d.Types, name)
}

// HasProtocol reports whether name is a recorded protocol dependency.
func (d *DependencySet) HasProtocol(name string) bool {
	return d != nil && containsName(d.Protocols, name)
}

// HasObject reports whether name is a recorded object dependency.
func (d *DependencySet) HasObject(name string) bool {
	return d != nil && containsName(d.Objects, name)
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

// typeTagOf extracts the TagField value when v is a map carrying a
// non-empty string tag.
func typeTagOf(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	raw, ok := m[TagField]
	if !ok {
		return "", false
	}
	tag, ok := raw.(string)
	if !ok || tag == "" {
		return "", false
	}
	return tag, true
}
