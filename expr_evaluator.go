package directives

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprEvaluator struct {
	evaluatorConfig
}

// NewExprEvaluator returns the default display-rule evaluator, backed by
// expr-lang/expr. Registry functions are callable by name, for example
// blank(content.title).
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(rule string) (CompiledRule, error) {
	if err := checkRule(RulesEngineExpr, rule); err != nil {
		return nil, err
	}
	if cached, ok := e.cached(RulesEngineExpr, rule); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return &exprRule{program: program, rule: rule}, nil
		}
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.registry.bound(name)))
	}
	program, err := exprlang.Compile(rule, options...)
	if err != nil {
		return nil, wrapEvaluationError(RulesEngineExpr, rule, "", err)
	}
	e.remember(RulesEngineExpr, rule, program)
	return &exprRule{program: program, rule: rule}, nil
}

type exprRule struct {
	program *exprvm.Program
	rule    string
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	out, err := exprlang.Run(r.program, ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError(RulesEngineExpr, r.rule, ctx.label(), err)
	}
	return out, nil
}
