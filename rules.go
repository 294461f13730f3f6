package directives

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SettingVisibleWhen is the settings key holding a component display rule.
const SettingVisibleWhen = "visibleWhen"

// RuleContext carries inputs needed when evaluating a display rule. Snapshot
// keys become top-level variables of the expression.
type RuleContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Component string
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) label() string {
	if ctx.Component != "" {
		return ctx.Component
	}
	return "unknown"
}

// bindings returns the variables visible to a rule: now, args and metadata
// plus every snapshot key. Snapshot keys win on collision.
func (ctx RuleContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	vars := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	for key, value := range snapshotAsMap(ctx.Snapshot) {
		vars[key] = value
	}
	return vars
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Evaluator executes display rules against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, rule string) (any, error)
	Compile(rule string) (CompiledRule, error)
}

// CompiledRule is a rule prepared once and evaluated per component.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// VisibilityOption configures a Visibility filter.
type VisibilityOption func(*Visibility)

// WithRuleLogger records every rule evaluation.
func WithRuleLogger(logger EvaluatorLogger) VisibilityOption {
	return func(v *Visibility) {
		if logger == nil {
			v.evalLogger = noopEvaluatorLogger{}
			return
		}
		v.evalLogger = logger
	}
}

// WithVisibilityLogger sets the logger used for rule failures.
func WithVisibilityLogger(logger Logger) VisibilityOption {
	return func(v *Visibility) {
		v.logger = loggerOrNop(logger)
	}
}

// WithVisibilityObserver sets the observer notified of rule outcomes.
func WithVisibilityObserver(observer Observer) VisibilityOption {
	return func(v *Visibility) {
		v.observer = observerOrNop(observer)
	}
}

// WithRuleClock overrides the "now" binding, mainly for tests.
func WithRuleClock(now func() time.Time) VisibilityOption {
	return func(v *Visibility) {
		if now != nil {
			v.now = now
		}
	}
}

// Visibility hides components whose settings.visibleWhen rule evaluates to
// false. Components without a rule are always visible. A rule that fails to
// evaluate or does not return a bool keeps the component visible.
type Visibility struct {
	evaluator  Evaluator
	evalLogger EvaluatorLogger
	logger     Logger
	observer   Observer
	now        func() time.Time
}

// NewVisibility builds a filter over evaluator. A nil evaluator defaults to
// the expr evaluator.
func NewVisibility(evaluator Evaluator, opts ...VisibilityOption) *Visibility {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	v := &Visibility{
		evaluator:  evaluator,
		evalLogger: noopEvaluatorLogger{},
		logger:     noopLogger{},
		observer:   noopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Visible evaluates the display rule of d for page.
func (v *Visibility) Visible(d RenderDescriptor, page PageContext) (bool, error) {
	rule := ruleOf(d)
	if rule == "" {
		return true, nil
	}
	now := v.now()
	ctx := RuleContext{
		Snapshot: map[string]any{
			"id":       d.ID,
			"type":     string(d.Type),
			"content":  nonNilMap(d.Content),
			"settings": nonNilMap(d.Settings),
			"page":     page.binding(),
		},
		Now:       &now,
		Metadata:  copyMetadata(page.Metadata),
		Component: d.ID,
	}.withDefaults()

	engine := evaluatorEngineName(v.evaluator)
	start := time.Now()
	value, err := v.evaluator.Evaluate(ctx, rule)
	err = wrapEvaluationError(engine, rule, ctx.label(), err)
	v.evalLogger.LogEvaluation(EvaluatorLogEvent{
		Engine:    engine,
		Expr:      rule,
		Component: ctx.label(),
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return true, err
	}
	visible, ok := value.(bool)
	if !ok {
		return true, wrapEvaluationError(engine, rule, ctx.label(), fmt.Errorf("rule returned %T, want bool", value))
	}
	return visible, nil
}

// Filter returns the visible descriptors in their original order.
func (v *Visibility) Filter(ctx context.Context, descriptors []RenderDescriptor, page PageContext) []RenderDescriptor {
	out := make([]RenderDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if ctx.Err() != nil {
			break
		}
		visible, err := v.Visible(d, page)
		v.observer.RuleOutcome(visible, err)
		if err != nil {
			v.logger.Warn("display rule failed", "component_id", d.ID, "error", err.Error())
		}
		if visible {
			out = append(out, d)
		}
	}
	return out
}

func ruleOf(d RenderDescriptor) string {
	rule, _ := d.Settings[SettingVisibleWhen].(string)
	return strings.TrimSpace(rule)
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch e.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}
