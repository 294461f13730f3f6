package directives

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

type celEvaluator struct {
	evaluatorConfig
}

// NewCELEvaluator returns a display-rule evaluator backed by cel-go. CEL has
// no free functions, so registry helpers are reached through
// call("name", args...).
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	return &celEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

// Compile defers type checking to the first evaluation, when the variables
// declared from the snapshot are known.
func (e *celEvaluator) Compile(rule string) (CompiledRule, error) {
	if err := checkRule(RulesEngineCEL, rule); err != nil {
		return nil, err
	}
	return &celRule{evaluator: e, rule: rule}, nil
}

type celRule struct {
	evaluator *celEvaluator
	rule      string
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vars := ctx.bindings()
	for name := range vars {
		if celBuiltinIdents[name] {
			delete(vars, name)
		}
	}
	program, err := r.evaluator.program(r.rule, vars)
	if err != nil {
		return nil, wrapEvaluationError(RulesEngineCEL, r.rule, ctx.label(), err)
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, wrapEvaluationError(RulesEngineCEL, r.rule, ctx.label(), err)
	}
	return out.Value(), nil
}

// program compiles rule for the given variable set. The cache key includes
// the variable names because CEL checks identifiers at compile time.
func (e *celEvaluator) program(rule string, vars map[string]any) (celgo.Program, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	key := rule + "|" + strings.Join(names, ",")
	if cached, ok := e.cached(RulesEngineCEL, key); ok {
		if program, ok := cached.(celgo.Program); ok {
			return program, nil
		}
	}

	env, err := e.environment(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.remember(RulesEngineCEL, key, program)
	return program, nil
}

func (e *celEvaluator) environment(names []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Function("call", e.callOverloads()...),
	}
	for _, name := range names {
		if name == "now" {
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

// celBuiltinIdents are type identifiers CEL declares itself. Snapshot keys
// with these names, such as "type", are not visible to CEL rules.
var celBuiltinIdents = map[string]bool{
	"bool":      true,
	"bytes":     true,
	"double":    true,
	"int":       true,
	"list":      true,
	"map":       true,
	"null_type": true,
	"string":    true,
	"type":      true,
	"uint":      true,
}

// maxCELCallArgs bounds the call(name, ...) overloads; CEL has no varargs.
const maxCELCallArgs = 3

func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	overloads := make([]celgo.FunctionOpt, 0, maxCELCallArgs+1)
	for arity := 0; arity <= maxCELCallArgs; arity++ {
		argTypes := []*celgo.Type{celgo.StringType}
		for i := 0; i < arity; i++ {
			argTypes = append(argTypes, celgo.DynType)
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn_%d", arity),
			argTypes,
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		))
	}
	return overloads
}

func (e *celEvaluator) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if len(values) == 0 {
			return types.NewErr("directives: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("directives: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
