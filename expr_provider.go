package assembly

import (
	"context"
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprProviderOption configures an expr provider instance.
type ExprProviderOption func(*exprProvider)

// ExprWithProgramCache wires a ProgramCache into the expr provider.
func ExprWithProgramCache(cache ProgramCache) ExprProviderOption {
	return func(p *exprProvider) {
		p.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr provider.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprProviderOption {
	return func(p *exprProvider) {
		if registry == nil {
			return
		}
		p.registry = registry.Clone()
	}
}

// exprProvider evaluates reference paths as expressions using
// github.com/expr-lang/expr.
type exprProvider struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprProvider constructs a Provider that evaluates each reference
// path as an expr expression. The environment exposes the requesting
// scope's label as "scope", every visible materialized object by name,
// an "object" function that resolves further objects on demand, and any
// registered functions.
func NewExprProvider(opts ...ExprProviderOption) Provider {
	p := &exprProvider{}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *exprProvider) Provide(ctx context.Context, refs []Ref, rc *Resolver) (any, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("assembly: expr provider requires at least one reference")
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

func (p *exprProvider) evaluate(ctx context.Context, expression string, rc *Resolver) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("assembly: expr expression must not be empty")
	}
	env := p.environment(ctx, rc)
	if p.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, fmt.Errorf("assembly: expr %q: %w", expression, err)
		}
		return result, nil
	}
	program, err := p.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("assembly: expr %q: %w", expression, err)
	}
	return result, nil
}

func (p *exprProvider) loadOrCompile(expression string) (*exprvm.Program, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range p.registryNames() {
		fn := p.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, fmt.Errorf("assembly: expr %q: %w", expression, err)
	}
	if p.cache != nil {
		p.cache.Set(expression, program)
	}
	return program, nil
}

func (p *exprProvider) environment(ctx context.Context, rc *Resolver) map[string]any {
	env := visibleCached(rc)
	if rc != nil {
		env["scope"] = rc.Label()
		env["object"] = func(name string) (any, error) {
			return rc.objectValue(ctx, name)
		}
	}
	if p.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return p.registry.Call(name, arguments...)
		}
		for _, name := range p.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return p.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (p *exprProvider) registryNames() []string {
	if p == nil || p.registry == nil {
		return nil
	}
	return p.registry.Names()
}

func (p *exprProvider) registryFunction(name string) func(...any) (any, error) {
	if p == nil || p.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return p.registry.Call(name, arguments...)
	}
}
