package gate

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// maxCallArgs bounds the positional arguments accepted by call in CEL.
const maxCallArgs = 4

type celEvaluator struct {
	engineConfig
	env    *celgo.Env
	envErr error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Registered
// functions are reachable through call("name", args...) only.
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	e := &celEvaluator{engineConfig: newEngineConfig(opts)}
	e.env, e.envErr = e.buildEnv()
	return e
}

func (e *celEvaluator) engine() string { return "cel" }

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression, CompileForRule(ctx.Rule))
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	if expression == "" {
		return nil, annotate(ErrEmptyExpression, "cel", expression, cfg.rule)
	}
	if e.envErr != nil {
		return nil, annotate(e.envErr, "cel", expression, cfg.rule)
	}
	program, err := loadOrCompile(e.engineConfig, expression, func() (celgo.Program, error) {
		ast, issues := e.env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return e.env.Program(ast)
	})
	if err != nil {
		return nil, annotate(err, "cel", expression, cfg.rule)
	}
	return &celRule{program: program, expression: expression}, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("role", celgo.StringType),
		celgo.Variable("is_student", celgo.BoolType),
		celgo.Variable("is_coach", celgo.BoolType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
	}
	return celgo.NewEnv(opts...)
}

// callOverloads declares call(string, dyn...) once per arity since CEL has no
// variadic declarations.
func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	overloads := make([]celgo.FunctionOpt, 0, maxCallArgs+1)
	params := []*celgo.Type{celgo.StringType}
	for arity := 0; arity <= maxCallArgs; arity++ {
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn%d", arity),
			append([]*celgo.Type(nil), params...),
			celgo.DynType,
			celgo.FunctionBinding(e.call),
		))
		params = append(params, celgo.DynType)
	}
	return overloads
}

func (e *celEvaluator) call(values ...ref.Val) ref.Val {
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("gate: call name must be string")
	}
	args := make([]any, 0, len(values)-1)
	for _, val := range values[1:] {
		args = append(args, val.Value())
	}
	result, err := e.dispatch(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celRule struct {
	program    celgo.Program
	expression string
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	out, _, err := r.program.Eval(ctx.bindings())
	if err != nil {
		return nil, annotate(err, "cel", r.expression, ctx.ruleLabel())
	}
	return out.Value(), nil
}
