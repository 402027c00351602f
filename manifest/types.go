// Package manifest loads scope declaration documents from YAML or HCL
// files. Manifests carry named object declarations and scope metadata
// only; factories and providers stay code-registered.
package manifest

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-assembly"
)

// ObjectDecl is one named declaration inside a scope block. Document
// order is declaration order.
type ObjectDecl struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// Scope is one scope block of a manifest document.
type Scope struct {
	Label   string       `yaml:"label"`
	Level   string       `yaml:"level"`
	BaseDir string       `yaml:"basedir"`
	Objects []ObjectDecl `yaml:"objects"`
}

// Document is a parsed manifest plus its on-disk source when loaded
// from a file.
type Document struct {
	Version int     `yaml:"version"`
	Scopes  []Scope `yaml:"scopes"`
	Path    string  `yaml:"-"`
}

// Validate checks structural rules common to both front-ends.
func (d Document) Validate() error {
	if d.Version != 0 && d.Version != 1 {
		return fmt.Errorf("manifest: unsupported version %d", d.Version)
	}
	for i, scope := range d.Scopes {
		if assembly.ParseScopeLevel(strings.TrimSpace(scope.Level)) == assembly.LevelUnknown {
			return fmt.Errorf("manifest: scope %d: unknown level %q", i, scope.Level)
		}
		for j, object := range scope.Objects {
			if strings.TrimSpace(object.Name) == "" {
				return fmt.Errorf("manifest: scope %d object %d: name is required", i, j)
			}
		}
	}
	return nil
}

// Normalized trims whitespace and defaults empty labels to the level
// name.
func (d Document) Normalized() Document {
	out := d
	out.Scopes = make([]Scope, len(d.Scopes))
	for i, scope := range d.Scopes {
		normalized := scope
		normalized.Label = strings.TrimSpace(scope.Label)
		normalized.Level = strings.TrimSpace(scope.Level)
		normalized.BaseDir = strings.TrimSpace(scope.BaseDir)
		if normalized.Label == "" {
			normalized.Label = assembly.ParseScopeLevel(normalized.Level).String()
		}
		normalized.Objects = make([]ObjectDecl, len(scope.Objects))
		for j, object := range scope.Objects {
			object.Name = strings.TrimSpace(object.Name)
			normalized.Objects[j] = object
		}
		out.Scopes[i] = normalized
	}
	return out
}

// Scope returns the scope block with the given label.
func (d Document) Scope(label string) (Scope, bool) {
	for _, scope := range d.Scopes {
		if scope.Label == label {
			return scope, true
		}
	}
	return Scope{}, false
}

// ScopeLevel returns the parsed level of this block.
func (s Scope) ScopeLevel() assembly.ScopeLevel {
	return assembly.ParseScopeLevel(s.Level)
}

// Entries converts the block's declarations into definition
// construction entries, preserving document order.
func (s Scope) Entries() []assembly.ObjectEntry {
	entries := make([]assembly.ObjectEntry, 0, len(s.Objects))
	for _, object := range s.Objects {
		entries = append(entries, assembly.ObjectEntry{Name: object.Name, Value: object.Value})
	}
	return entries
}

// Definition builds a scope definition from this block. Types,
// providers, and the parent link arrive through opts.
func (s Scope) Definition(opts ...assembly.DefinitionOption) (*assembly.Definition, error) {
	merged := append([]assembly.DefinitionOption{assembly.WithObjects(s.Entries()...)}, opts...)
	return assembly.NewDefinition(s.ScopeLevel(), merged...)
}
