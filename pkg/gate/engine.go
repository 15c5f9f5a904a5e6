package gate

// EngineOption configures any of the built-in evaluators.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// EngineCache stores compiled programs in cache, keyed by expression.
func EngineCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineFunctions exposes a snapshot of registry to rules. Functions
// registered afterwards are not seen by the evaluator.
func EngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry != nil {
			cfg.registry = registry.Clone()
		}
	}
}

func newEngineConfig(opts []EngineOption) engineConfig {
	var cfg engineConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg engineConfig) functionNames() []string {
	if cfg.registry == nil {
		return nil
	}
	return cfg.registry.Names()
}

// caller returns fn bound to the registry entry for name.
func (cfg engineConfig) caller(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return cfg.registry.Call(name, arguments...)
	}
}

// dispatch is the generic call(name, args...) entry point.
func (cfg engineConfig) dispatch(name string, arguments ...any) (any, error) {
	return cfg.registry.Call(name, arguments...)
}

// loadOrCompile returns the cached program for expression or compiles and
// caches a new one. Cached values of another engine's program type are
// ignored and overwritten.
func loadOrCompile[P any](cfg engineConfig, expression string, compile func() (P, error)) (P, error) {
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(expression); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		return program, err
	}
	if cfg.cache != nil {
		cfg.cache.Set(expression, program)
	}
	return program, nil
}
