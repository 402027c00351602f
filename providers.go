package assembly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// NewEnvProvider constructs a Provider that reads process environment
// variables named by each reference path. A missing variable is an
// error rather than an empty string.
func NewEnvProvider() Provider {
	return envProvider{}
}

type envProvider struct{}

func (envProvider) Provide(_ context.Context, refs []Ref, _ *Resolver) (any, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("assembly: env provider requires at least one reference")
	}
	values := make([]any, 0, len(refs))
	for _, ref := range refs {
		value, ok := os.LookupEnv(ref.Path)
		if !ok {
			return nil, fmt.Errorf("assembly: environment variable %q is not set", ref.Path)
		}
		values = append(values, value)
	}
	return collapseValues(values), nil
}

// NewFileProvider constructs a Provider that loads file contents named
// by each reference path. Relative paths are joined to the nearest base
// directory configured on the requesting resolver chain.
func NewFileProvider() Provider {
	return fileProvider{}
}

type fileProvider struct{}

func (fileProvider) Provide(_ context.Context, refs []Ref, rc *Resolver) (any, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("assembly: file provider requires at least one reference")
	}
	base := effectiveBaseDir(rc)
	values := make([]any, 0, len(refs))
	for _, ref := range refs {
		path := ref.Path
		if !filepath.IsAbs(path) && base != "" {
			path = filepath.Join(base, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("assembly: file provider: %w", err)
		}
		values = append(values, string(content))
	}
	return collapseValues(values), nil
}

// collapseValues keeps single-reference results scalar while larger
// reference lists come back as a slice in declaration order.
func collapseValues(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// effectiveBaseDir walks the chain outward and returns the first
// configured base directory.
func effectiveBaseDir(rc *Resolver) string {
	if rc == nil {
		return ""
	}
	budget := rc.def.HopBudget()
	for s := rc; s != nil; s = s.parent {
		if dir := s.BaseDir(); dir != "" {
			return dir
		}
		if budget == 0 {
			break
		}
		budget--
	}
	return ""
}

// visibleCached merges the already materialized objects visible from rc,
// nearest scope winning on name collisions. Expression providers expose
// the result as their evaluation environment.
func visibleCached(rc *Resolver) map[string]any {
	env := map[string]any{}
	if rc == nil {
		return env
	}
	budget := rc.def.HopBudget()
	for s := rc; s != nil; s = s.parent {
		s.cache.ForEach(func(name string, m *Materialized) bool {
			if _, ok := env[name]; !ok {
				env[name] = m.Value
			}
			return true
		})
		if budget == 0 {
			break
		}
		budget--
	}
	return env
}
