package assembly

import (
	"context"
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELProviderOption configures the CEL provider.
type CELProviderOption func(*celProvider)

// CELWithProgramCache wires a ProgramCache into the CEL provider.
func CELWithProgramCache(cache ProgramCache) CELProviderOption {
	return func(p *celProvider) {
		p.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL provider.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELProviderOption {
	return func(p *celProvider) {
		if registry == nil {
			return
		}
		p.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

// celProvider evaluates reference paths as CEL programs. The activation
// binds "scope" to the requesting scope label and "objects" to the map
// of visible materialized objects; declarations stay fixed so compiled
// programs can be cached by expression alone.
type celProvider struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELProvider constructs a Provider backed by cel-go. Registered
// functions are reachable as call(name, [args]).
func NewCELProvider(opts ...CELProviderOption) Provider {
	p := &celProvider{}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *celProvider) Provide(_ context.Context, refs []Ref, rc *Resolver) (any, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("assembly: cel provider requires at least one reference")
	}
	values := make([]any, 0, len(refs))
	for _, ref := range refs {
		value, err := p.evaluate(ref.Path, rc)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return collapseValues(values), nil
}

func (p *celProvider) evaluate(expression string, rc *Resolver) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("assembly: cel expression must not be empty")
	}
	program, err := p.loadOrCompile(expression)
	if err != nil {
		return nil, fmt.Errorf("assembly: cel %q: %w", expression, err)
	}
	out, _, err := program.program.Eval(p.activation(rc))
	if err != nil {
		return nil, fmt.Errorf("assembly: cel %q: %w", expression, err)
	}
	return out.Value(), nil
}

func (p *celProvider) loadOrCompile(expression string) (*celProgram, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := p.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if p.cache != nil {
		p.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (p *celProvider) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("scope", celgo.StringType),
		celgo.Variable("objects", celgo.DynType),
	}
	if p.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.FunctionBinding(p.callBinding()),
			),
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.FunctionBinding(p.callBinding()),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (p *celProvider) activation(rc *Resolver) map[string]any {
	return map[string]any{
		"scope":   rc.Label(),
		"objects": visibleCached(rc),
	}
}

func (p *celProvider) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if p.registry == nil {
			return types.NewErr("assembly: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("assembly: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("assembly: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			switch items := val.Value().(type) {
			case []any:
				args = append(args, items...)
			case []ref.Val:
				for _, item := range items {
					args = append(args, item.Value())
				}
			default:
				args = append(args, items)
			}
		}
		result, err := p.registry.Call(name, args...)
		if err != nil {
			return types.NewErr(err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
