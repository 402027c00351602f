package assembly

type jsProviderConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSProviderOption configures the JS provider.
type JSProviderOption func(*jsProviderConfig)

// JSWithProgramCache applies a ProgramCache to the JS provider.
func JSWithProgramCache(cache ProgramCache) JSProviderOption {
	return func(cfg *jsProviderConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS provider.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSProviderOption {
	return func(cfg *jsProviderConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSProviderOptions(opts []JSProviderOption) jsProviderConfig {
	cfg := jsProviderConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
