//go:build js_eval

package directives

import (
	"github.com/dop251/goja"
)

type jsEvaluator struct {
	evaluatorConfig
}

// NewJSEvaluator returns a display-rule evaluator backed by goja. Rules are
// JavaScript expressions; registry helpers are globals.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(rule string) (CompiledRule, error) {
	if err := checkRule(RulesEngineJS, rule); err != nil {
		return nil, err
	}
	if cached, ok := e.cached(RulesEngineJS, rule); ok {
		if program, ok := cached.(*goja.Program); ok {
			return &jsRule{evaluator: e, program: program, rule: rule}, nil
		}
	}
	program, err := goja.Compile("visibleWhen", "(function(){ return ("+rule+"); })()", false)
	if err != nil {
		return nil, wrapEvaluationError(RulesEngineJS, rule, "", err)
	}
	e.remember(RulesEngineJS, rule, program)
	return &jsRule{evaluator: e, program: program, rule: rule}, nil
}

type jsRule struct {
	evaluator *jsEvaluator
	program   *goja.Program
	rule      string
}

// Evaluate runs the rule in a fresh runtime; a goja.Runtime must not be
// shared between goroutines.
func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError(RulesEngineJS, r.rule, ctx.label(), err)
		}
	}
	registry := r.evaluator.registry
	for _, name := range registry.Names() {
		if err := vm.Set(name, registry.bound(name)); err != nil {
			return nil, wrapEvaluationError(RulesEngineJS, r.rule, ctx.label(), err)
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError(RulesEngineJS, r.rule, ctx.label(), err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}

func jsEngineName(e Evaluator) string {
	if _, ok := e.(*jsEvaluator); ok {
		return RulesEngineJS
	}
	return ""
}
