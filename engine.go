package directives

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoComponentStore is returned by New when no component store is supplied.
var ErrNoComponentStore = errors.New("directives: component store not configured")

// Rule engine names accepted by WithRulesEngine.
const (
	RulesEngineExpr = "expr"
	RulesEngineCEL  = "cel"
	RulesEngineJS   = "js"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	promotions   PromotionStore
	logger       Logger
	observer     Observer
	evaluator    Evaluator
	rulesEngine  string
	registry     *FunctionRegistry
	cache        ProgramCache
	evalLogger   EvaluatorLogger
	concurrency  int
	strategies   []ParseStrategy
	now          func() time.Time
	disableRules bool
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{
		logger:      noopLogger{},
		observer:    noopObserver{},
		rulesEngine: RulesEngineExpr,
		concurrency: DefaultEnrichConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger sets the logger shared by every stage.
func WithLogger(logger Logger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = loggerOrNop(logger)
	}
}

// WithObserver sets the observer shared by every stage.
func WithObserver(observer Observer) Option {
	return func(cfg *engineConfig) {
		cfg.observer = observerOrNop(observer)
	}
}

// WithPromotionStore enables promotion enrichment.
func WithPromotionStore(store PromotionStore) Option {
	return func(cfg *engineConfig) {
		cfg.promotions = store
	}
}

// WithEvaluator sets the display rule evaluator. It takes precedence over
// WithRulesEngine.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *engineConfig) {
		cfg.evaluator = e
	}
}

// WithRulesEngine selects a built-in evaluator by name: expr, cel or js.
func WithRulesEngine(name string) Option {
	return func(cfg *engineConfig) {
		cfg.rulesEngine = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithoutDisplayRules disables settings.visibleWhen evaluation.
func WithoutDisplayRules() Option {
	return func(cfg *engineConfig) {
		cfg.disableRules = true
	}
}

// WithFunctionRegistry exposes custom functions to display rules.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		cfg.registry = registry
	}
}

// WithProgramCache caches compiled display rules.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithEvaluatorLogger records every display rule evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *engineConfig) {
		cfg.evalLogger = logger
	}
}

// WithEnrichConcurrency bounds concurrent promotion lookups per render.
func WithEnrichConcurrency(limit int) Option {
	return func(cfg *engineConfig) {
		if limit > 0 {
			cfg.concurrency = limit
		}
	}
}

// WithParserStrategies replaces the default structured then inline chain.
func WithParserStrategies(strategies ...ParseStrategy) Option {
	return func(cfg *engineConfig) {
		cfg.strategies = append([]ParseStrategy(nil), strategies...)
	}
}

// WithClock overrides the time source used for display rules and render
// timings.
func WithClock(now func() time.Time) Option {
	return func(cfg *engineConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// Engine wires the parser, resolver, enricher and display rules into one
// render pipeline. It holds no per-request state and is safe for concurrent
// use.
type Engine struct {
	parser     *Parser
	resolver   *Resolver
	enricher   *Enricher
	visibility *Visibility
	observer   Observer
	now        func() time.Time
}

// New builds an engine over the component catalog.
func New(components ComponentStore, opts ...Option) (*Engine, error) {
	if components == nil {
		return nil, ErrNoComponentStore
	}
	cfg := applyOptions(opts)

	parserOpts := []ParserOption{
		WithParserLogger(cfg.logger),
		WithParserObserver(cfg.observer),
	}
	if len(cfg.strategies) > 0 {
		parserOpts = append(parserOpts, WithStrategies(cfg.strategies...))
	}

	engine := &Engine{
		parser: NewParser(parserOpts...),
		resolver: NewResolver(components,
			WithResolverLogger(cfg.logger),
			WithResolverObserver(cfg.observer),
		),
		enricher: NewEnricher(cfg.promotions,
			WithEnricherLogger(cfg.logger),
			WithEnricherObserver(cfg.observer),
			WithConcurrency(cfg.concurrency),
		),
		observer: cfg.observer,
		now:      cfg.now,
	}

	if !cfg.disableRules {
		evaluator, err := cfg.resolveEvaluator()
		if err != nil {
			return nil, err
		}
		evalLogger := cfg.evalLogger
		if evalLogger == nil {
			evalLogger = RuleLogger(cfg.logger)
		}
		engine.visibility = NewVisibility(evaluator,
			WithRuleLogger(evalLogger),
			WithVisibilityLogger(cfg.logger),
			WithVisibilityObserver(cfg.observer),
			WithRuleClock(cfg.now),
		)
	}
	return engine, nil
}

func (cfg engineConfig) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	evalOpts := []EvaluatorOption{
		WithRuleCache(cfg.cache),
		WithRuleFunctions(cfg.registry),
	}
	switch cfg.rulesEngine {
	case "", RulesEngineExpr:
		return NewExprEvaluator(evalOpts...), nil
	case RulesEngineCEL:
		return NewCELEvaluator(evalOpts...), nil
	case RulesEngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("directives: rules engine %q requires the js_eval build tag", cfg.rulesEngine)
		}
		return NewJSEvaluator(evalOpts...), nil
	default:
		return nil, fmt.Errorf("directives: unknown rules engine %q", cfg.rulesEngine)
	}
}

// Parse extracts ordered references from content.
func (e *Engine) Parse(content string) []ComponentReference {
	return e.parser.Parse(content)
}

// ParseWithDiagnostics extracts references and reports recovered tokens.
func (e *Engine) ParseWithDiagnostics(content string) ([]ComponentReference, []error) {
	return e.parser.ParseWithDiagnostics(content)
}

// Resolve merges one reference. It returns nil for unknown or inactive
// components.
func (e *Engine) Resolve(ctx context.Context, ref ComponentReference) (*RenderDescriptor, error) {
	return e.resolver.Resolve(ctx, ref)
}

// ResolveAll merges refs in order and drops unresolved ones.
func (e *Engine) ResolveAll(ctx context.Context, refs []ComponentReference) []RenderDescriptor {
	return e.resolver.ResolveAll(ctx, refs)
}

// Explain reports merge provenance for ref.
func (e *Engine) Explain(ctx context.Context, ref ComponentReference) (*Explanation, error) {
	return e.resolver.Explain(ctx, ref)
}

// Palette lists the active components editors can insert.
func (e *Engine) Palette(ctx context.Context) ([]PaletteEntry, error) {
	return e.resolver.Palette(ctx)
}

// Enrich applies live promotion data to d.
func (e *Engine) Enrich(ctx context.Context, d RenderDescriptor) RenderDescriptor {
	return e.enricher.Enrich(ctx, d)
}

// Render runs the full pipeline over page content: parse, resolve, enrich and
// display rules. Bad directives, missing components and failed lookups are
// dropped or passed through; Render only returns an error when ctx is done
// before any work completes.
func (e *Engine) Render(ctx context.Context, content string, page PageContext) ([]RenderDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := e.now()
	refs := e.parser.Parse(content)
	descriptors := e.resolver.ResolveAll(ctx, refs)
	descriptors = e.enricher.EnrichAll(ctx, descriptors)
	if e.visibility != nil {
		descriptors = e.visibility.Filter(ctx, descriptors, page)
	}
	e.observer.RenderCompleted(len(descriptors), e.now().Sub(start))
	return descriptors, nil
}

// Serialize renders components back into inline directives.
func (e *Engine) Serialize(components []ResolvedComponent) (string, error) {
	return Serialize(components)
}
