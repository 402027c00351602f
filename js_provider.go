//go:build js_eval

package assembly

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// jsProvider evaluates reference paths as JavaScript expressions using
// goja. Each evaluation runs in a fresh runtime seeded with the visible
// materialized objects, the scope label, an object() resolver function,
// and any registered functions.
type jsProvider struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSProvider constructs a Provider backed by goja.
func NewJSProvider(opts ...JSProviderOption) Provider {
	cfg := applyJSProviderOptions(opts)
	return &jsProvider{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (p *jsProvider) Provide(ctx context.Context, refs []Ref, rc *Resolver) (any, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("assembly: js provider requires at least one reference")
	}
	values := make([]any, 0, len(refs))
	for _, ref := range refs {
		value, err := p.evaluate(ctx, ref.Path, rc)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return collapseValues(values), nil
}

func (p *jsProvider) evaluate(ctx context.Context, expression string, rc *Resolver) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("assembly: js expression must not be empty")
	}
	if p.cache == nil {
		return p.run(ctx, expression, nil, rc)
	}
	program, err := p.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, expression, program, rc)
}

func (p *jsProvider) loadOrCompile(expression string) (*goja.Program, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", p.wrapExpression(expression), false)
	if err != nil {
		return nil, fmt.Errorf("assembly: js %q: %w", expression, err)
	}
	if p.cache != nil {
		p.cache.Set(expression, program)
	}
	return program, nil
}

func (p *jsProvider) run(ctx context.Context, expression string, program *goja.Program, rc *Resolver) (any, error) {
	vm := goja.New()
	p.injectContext(ctx, vm, rc)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, fmt.Errorf("assembly: js %q: %w", expression, err)
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(p.wrapExpression(expression))
	if err != nil {
		return nil, fmt.Errorf("assembly: js %q: %w", expression, err)
	}
	return value.Export(), nil
}

func (p *jsProvider) injectContext(ctx context.Context, vm *goja.Runtime, rc *Resolver) {
	for name, value := range visibleCached(rc) {
		vm.Set(name, value)
	}
	if rc != nil {
		vm.Set("scope", rc.Label())
		vm.Set("object", func(name string) (any, error) {
			return rc.objectValue(ctx, name)
		})
	}
	if p.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return p.registry.Call(name, arguments...)
		})
		for _, name := range p.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return p.registry.Call(fn, arguments...)
			})
		}
	}
}

func (p *jsProvider) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsProviderAvailable() bool {
	return true
}
