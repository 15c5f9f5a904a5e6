package gate

import (
	"time"

	rolestate "github.com/goliatone/go-rolestate"
)

// RoleSource supplies the role rules are evaluated against. *rolestate.Store
// satisfies it.
type RoleSource interface {
	Current() rolestate.Role
}

// RoleSourceFunc adapts a function to RoleSource.
type RoleSourceFunc func() rolestate.Role

// Current implements RoleSource.
func (fn RoleSourceFunc) Current() rolestate.Role {
	return fn()
}

// StaticRole is a RoleSource that always reports the same role.
type StaticRole rolestate.Role

// Current implements RoleSource.
func (r StaticRole) Current() rolestate.Role {
	return rolestate.Role(r)
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Role     rolestate.Role
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Rule     string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) ruleLabel() string {
	if ctx.Rule != "" {
		return ctx.Rule
	}
	return "inline"
}

// bindings returns the variables every engine exposes to rules.
func (ctx RuleContext) bindings() map[string]any {
	return map[string]any{
		"role":       string(ctx.Role),
		"is_student": ctx.Role == rolestate.Student,
		"is_coach":   ctx.Role == rolestate.Coach,
		"now":        ctx.timestamp(),
		"args":       ctx.Args,
		"metadata":   ctx.Metadata,
	}
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	rule string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// CompileForRule labels compile errors with the rule name.
func CompileForRule(name string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.rule = name
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
