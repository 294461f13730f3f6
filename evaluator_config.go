package directives

// EvaluatorOption configures any display-rule evaluator.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithRuleCache stores compiled rules in cache. Entries are keyed by engine
// and rule, so one cache can back several evaluators.
func WithRuleCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// WithRuleFunctions exposes registry functions to rules. The built-in
// helpers stay available unless registry registers the same name.
func WithRuleFunctions(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.registry = registry
	}
}

func newEvaluatorConfig(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.registry = cfg.registry.withRuleHelpers()
	return cfg
}

func (cfg evaluatorConfig) cached(engine, key string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(engine + ":" + key)
}

func (cfg evaluatorConfig) remember(engine, key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(engine+":"+key, program)
	}
}
