package gate

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprEvaluator struct {
	engineConfig
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
// Registered functions are callable by name and through call.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *exprEvaluator) engine() string { return "expr" }

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression, CompileForRule(ctx.Rule))
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	if expression == "" {
		return nil, annotate(ErrEmptyExpression, "expr", expression, cfg.rule)
	}
	program, err := loadOrCompile(e.engineConfig, expression, func() (*exprvm.Program, error) {
		return exprlang.Compile(expression, e.compileOptions()...)
	})
	if err != nil {
		return nil, annotate(err, "expr", expression, cfg.rule)
	}
	return &exprRule{evaluator: e, program: program, expression: expression}, nil
}

// compileOptions type-checks against a sample environment so typos in the
// built-in variables fail at Define time. Unknown identifiers stay allowed
// for keys reached through args and metadata.
func (e *exprEvaluator) compileOptions() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(e.environment(RuleContext{}.withDefaults())),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functionNames() {
		options = append(options, exprlang.Function(name, e.caller(name)))
	}
	return options
}

func (e *exprEvaluator) environment(ctx RuleContext) map[string]any {
	env := ctx.bindings()
	if e.registry != nil {
		env["call"] = e.dispatch
	}
	return env
}

type exprRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	out, err := exprlang.Run(r.program, r.evaluator.environment(ctx))
	if err != nil {
		return nil, annotate(err, "expr", r.expression, ctx.ruleLabel())
	}
	return out, nil
}
