package assembly

import (
	"context"
	"fmt"

	"github.com/goliatone/go-assembly/pkg/events"
)

// Canonical labels for the three standard scope levels.
const (
	ScopeGlobal      = "global"
	ScopeApplication = "application"
	ScopeRequest     = "request"
)

// Chain bundles the long-lived global and application resolvers and
// stamps out short-lived request resolvers parented on them.
type Chain struct {
	Global *Resolver
	App    *Resolver

	emitter *events.Emitter
	logger  ResolutionLogger
	hooks   []events.Hook
}

// ChainOption configures chain construction.
type ChainOption func(*chainConfig)

type chainConfig struct {
	hooks   []events.Hook
	logger  ResolutionLogger
	baseDir string
}

// ChainWithHooks applies hooks to every resolver the chain creates and
// enables resolver.created emission.
func ChainWithHooks(hooks ...events.Hook) ChainOption {
	return func(cfg *chainConfig) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// ChainWithLogger applies logger to every resolver the chain creates.
func ChainWithLogger(logger ResolutionLogger) ChainOption {
	return func(cfg *chainConfig) {
		cfg.logger = logger
	}
}

// ChainWithBaseDir sets the base directory on the global resolver. File
// references anywhere in the chain fall back to it.
func ChainWithBaseDir(dir string) ChainOption {
	return func(cfg *chainConfig) {
		cfg.baseDir = dir
	}
}

// NewChain builds the global and application resolvers over their
// definitions. globalDef must be a global-level definition and appDef an
// application-level one.
func NewChain(globalDef, appDef *Definition, opts ...ChainOption) (*Chain, error) {
	cfg := chainConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if globalDef != nil && globalDef.Level() != LevelGlobal {
		return nil, fmt.Errorf("%w: got %s for the global position", ErrChainLevelMismatch, globalDef.Level())
	}
	if appDef != nil && appDef.Level() != LevelApplication {
		return nil, fmt.Errorf("%w: got %s for the application position", ErrChainLevelMismatch, appDef.Level())
	}

	globalOpts := []ResolverOption{WithHooks(cfg.hooks...)}
	if cfg.logger != nil {
		globalOpts = append(globalOpts, WithLogger(cfg.logger))
	}
	if cfg.baseDir != "" {
		globalOpts = append(globalOpts, WithBaseDir(cfg.baseDir))
	}
	global, err := NewResolver(ScopeGlobal, globalDef, globalOpts...)
	if err != nil {
		return nil, err
	}

	appOpts := []ResolverOption{WithParent(global), WithHooks(cfg.hooks...)}
	if cfg.logger != nil {
		appOpts = append(appOpts, WithLogger(cfg.logger))
	}
	app, err := NewResolver(ScopeApplication, appDef, appOpts...)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		Global:  global,
		App:     app,
		emitter: events.NewEmitter(cfg.hooks, events.Config{Enabled: len(cfg.hooks) > 0}),
		logger:  cfg.logger,
		hooks:   cfg.hooks,
	}
	c.emitCreated(global)
	c.emitCreated(app)
	return c, nil
}

// Request builds a request resolver parented on the application scope.
// Each call returns a fresh resolver with its own cache and UUID
// identity. def may be nil-parented or parented on the application
// definition for construction-time validation; any other parent is
// rejected.
func (c *Chain) Request(def *Definition, opts ...ResolverOption) (*Resolver, error) {
	if def != nil && def.Level() != LevelRequest {
		return nil, fmt.Errorf("%w: got %s for the request position", ErrChainLevelMismatch, def.Level())
	}
	if def != nil && def.Parent() != nil && def.Parent() != c.App.Definition() {
		return nil, ErrChainParentMismatch
	}

	requestOpts := []ResolverOption{WithParent(c.App), WithHooks(c.hooks...)}
	if c.logger != nil {
		requestOpts = append(requestOpts, WithLogger(c.logger))
	}
	requestOpts = append(requestOpts, opts...)
	request, err := NewResolver(ScopeRequest, def, requestOpts...)
	if err != nil {
		return nil, err
	}
	c.emitCreated(request)
	return request, nil
}

func (c *Chain) emitCreated(r *Resolver) {
	if !c.emitter.Enabled() {
		return
	}
	_ = c.emitter.Emit(context.Background(), events.BuildResolverCreatedEvent(events.ObjectEventInput{
		Scope:      r.Label(),
		ResolverID: r.ID(),
	}))
}
