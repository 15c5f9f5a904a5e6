//go:build js_eval

package gate

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	engineConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja. Programs are shared
// but every evaluation gets a fresh runtime, so rules cannot leak state.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{engineConfig: newEngineConfig(opts)}
}

// JSAvailable reports whether NewJSEvaluator returns a working evaluator.
func JSAvailable() bool { return true }

func (e *jsEvaluator) engine() string { return "js" }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression, CompileForRule(ctx.Rule))
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	if expression == "" {
		return nil, annotate(ErrEmptyExpression, "js", expression, cfg.rule)
	}
	program, err := loadOrCompile(e.engineConfig, expression, func() (*goja.Program, error) {
		return goja.Compile(cfg.rule, fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	})
	if err != nil {
		return nil, annotate(err, "js", expression, cfg.rule)
	}
	return &jsRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	globals := ctx.bindings()
	if e.registry != nil {
		globals["call"] = e.dispatch
		for _, name := range e.functionNames() {
			globals[name] = e.caller(name)
		}
	}
	for key, value := range globals {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm, err := r.evaluator.runtime(ctx)
	if err == nil {
		var value goja.Value
		if value, err = vm.RunProgram(r.program); err == nil {
			return value.Export(), nil
		}
	}
	return nil, annotate(err, "js", r.expression, ctx.ruleLabel())
}
