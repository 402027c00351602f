package assembly

import "sort"

// depAccumulator collects dependency names by kind while a declaration
// tree is walked, deduplicating as it goes.
type depAccumulator struct {
	types     map[string]struct{}
	protocols map[string]struct{}
	objects   map[string]struct{}
}

func newDepAccumulator() *depAccumulator {
	return &depAccumulator{
		types:     make(map[string]struct{}),
		protocols: make(map[string]struct{}),
		objects:   make(map[string]struct{}),
	}
}

func (a *depAccumulator) addType(name string) {
	a.types[name] = struct{}{}
}

func (a *depAccumulator) addProtocol(name string) {
	a.protocols[name] = struct{}{}
}

func (a *depAccumulator) addObject(name string) {
	a.objects[name] = struct{}{}
}

// absorb folds another declaration's closure into the accumulator. All
// three kinds transfer so overrides of indirect dependencies stay visible
// to the object being closed.
func (a *depAccumulator) absorb(set *DependencySet) {
	if set == nil {
		return
	}
	for _, name := range set.Types {
		a.types[name] = struct{}{}
	}
	for _, name := range set.Protocols {
		a.protocols[name] = struct{}{}
	}
	for _, name := range set.Objects {
		a.objects[name] = struct{}{}
	}
}

func (a *depAccumulator) freeze() *DependencySet {
	return &DependencySet{
		Types:     sortedNames(a.types),
		Protocols: sortedNames(a.protocols),
		Objects:   sortedNames(a.objects),
	}
}

func sortedNames(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// extractDeps walks a raw declaration tree and records every direct
// dependency: reference strings contribute protocol dependencies (object
// references contribute object dependencies instead), tagged maps
// contribute type dependencies. Recursion continues into every child
// regardless of kind.
func extractDeps(value any, acc *depAccumulator) {
	switch typed := value.(type) {
	case string:
		ref, ok := TryParseRef(typed)
		if !ok {
			return
		}
		if ref.IsObject() {
			acc.addObject(ref.Path)
			return
		}
		acc.addProtocol(ref.Protocol)
	case map[string]any:
		if tag, ok := typeTagOf(typed); ok {
			acc.addType(tag)
		}
		for _, child := range typed {
			extractDeps(child, acc)
		}
	case []any:
		for _, item := range typed {
			extractDeps(item, acc)
		}
	}
}

// analyze runs the one-time dependency analysis over every declared
// object: direct extraction, type/protocol validation against the
// definition chain, then the iterative fixed-point closure over object
// dependencies. Any failure aborts definition construction.
func (d *Definition) analyze() error {
	direct := make(map[string]*depAccumulator, len(d.objectOrder))
	for _, name := range d.objectOrder {
		acc := newDepAccumulator()
		extractDeps(d.objects[name].Raw, acc)
		direct[name] = acc
	}

	for _, name := range d.objectOrder {
		acc := direct[name]
		for _, typeName := range sortedNames(acc.types) {
			if _, ok := d.TypeDef(typeName, d.hopBudget); !ok {
				return &UnknownTypeError{Type: typeName, Object: name}
			}
		}
		for _, protocol := range sortedNames(acc.protocols) {
			if _, ok := d.ProviderDef(protocol, d.hopBudget); !ok {
				return &UnknownProtocolError{Protocol: protocol, Object: name}
			}
		}
	}

	return d.closeObjects(direct)
}

// closeObjects computes each object's transitive closure by fixed point.
// An object settles once every direct object-dependency is settled: local
// dependencies must close first, ancestor declarations absorbed as-is
// since their own definitions already closed them. A round that settles
// nothing while objects remain means an undeclared reference or a cycle,
// which fails construction with the full stuck-name list.
func (d *Definition) closeObjects(direct map[string]*depAccumulator) error {
	directObjects := make(map[string][]string, len(d.objectOrder))
	for _, name := range d.objectOrder {
		directObjects[name] = sortedNames(direct[name].objects)
	}

	closed := make(map[string]*DependencySet, len(d.objectOrder))
	var pending []string

	for _, name := range d.objectOrder {
		if len(directObjects[name]) == 0 {
			deps := direct[name].freeze()
			d.objects[name].Deps = deps
			closed[name] = deps
			continue
		}
		pending = append(pending, name)
	}

	for len(pending) > 0 {
		progressed := false
		var next []string

		for _, name := range pending {
			ready := true
			for _, dep := range directObjects[name] {
				if _, done := closed[dep]; done {
					continue
				}
				if _, local := d.objects[dep]; local {
					ready = false
					break
				}
				if _, ok := d.ancestorObject(dep); !ok {
					ready = false
					break
				}
			}
			if !ready {
				next = append(next, name)
				continue
			}

			acc := direct[name]
			for _, dep := range directObjects[name] {
				if set, done := closed[dep]; done {
					acc.absorb(set)
					continue
				}
				if ancestor, ok := d.ancestorObject(dep); ok {
					acc.absorb(ancestor.Deps)
				}
			}
			deps := acc.freeze()
			d.objects[name].Deps = deps
			closed[name] = deps
			progressed = true
		}

		if !progressed {
			return d.stuckError(next, directObjects)
		}
		pending = next
	}
	return nil
}

// ancestorObject resolves name through the parent chain only, leaving the
// local scope out.
func (d *Definition) ancestorObject(name string) (*ObjectDecl, bool) {
	if d.parent == nil {
		return nil, false
	}
	return d.parent.ObjectDef(name, d.hopBudget-1)
}

// stuckError splits the unresolved names into objects that transitively
// reach an undeclared reference and objects stuck in a cycle. The split
// is message quality only; both fail construction.
func (d *Definition) stuckError(stuck []string, directObjects map[string][]string) error {
	sort.Strings(stuck)
	err := &UnresolvedObjectsError{}
	for _, name := range stuck {
		if d.reachesUndeclared(name, directObjects, make(map[string]struct{})) {
			err.Missing = append(err.Missing, name)
			continue
		}
		err.Cyclic = append(err.Cyclic, name)
	}
	return err
}

func (d *Definition) reachesUndeclared(name string, directObjects map[string][]string, visited map[string]struct{}) bool {
	if _, seen := visited[name]; seen {
		return false
	}
	visited[name] = struct{}{}

	for _, dep := range directObjects[name] {
		if decl, local := d.objects[dep]; local {
			if decl.Deps != nil {
				continue
			}
			if d.reachesUndeclared(dep, directObjects, visited) {
				return true
			}
			continue
		}
		if _, ok := d.ancestorObject(dep); ok {
			continue
		}
		return true
	}
	return false
}
