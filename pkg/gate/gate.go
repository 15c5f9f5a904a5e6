package gate

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	rolestate "github.com/goliatone/go-rolestate"
)

// Option configures a Gate.
type Option func(*Gate)

// WithEvaluator replaces the default expr evaluator. A nil evaluator, such as
// NewJSEvaluator without the js_eval tag, is kept and every rule then fails
// with ErrNoEvaluator.
func WithEvaluator(evaluator Evaluator) Option {
	return func(g *Gate) {
		g.evaluator = evaluator
		g.explicit = true
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(g *Gate) {
		g.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(g *Gate) {
		g.registry = registry
	}
}

// WithEvaluatorLogger attaches an evaluator logger to the gate.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(g *Gate) {
		if logger == nil {
			g.logger = noopEvaluatorLogger{}
			return
		}
		g.logger = logger
	}
}

// WithMetadata sets the metadata map every rule sees.
func WithMetadata(metadata map[string]any) Option {
	return func(g *Gate) {
		g.metadata = cloneMetadata(metadata)
	}
}

// WithClock overrides the time source used for the now binding.
func WithClock(clock func() time.Time) Option {
	return func(g *Gate) {
		if clock != nil {
			g.clock = clock
		}
	}
}

type namedRule struct {
	expr     string
	compiled CompiledRule
}

// Gate evaluates named rules against the role reported by its source.
type Gate struct {
	source    RoleSource
	evaluator Evaluator
	explicit  bool
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	metadata  map[string]any
	clock     func() time.Time

	mu    sync.RWMutex
	rules map[string]namedRule
	order []string
}

// New builds a Gate reading the role from source. A nil source evaluates
// every rule against rolestate.DefaultRole.
func New(source RoleSource, opts ...Option) *Gate {
	g := &Gate{
		source: source,
		logger: noopEvaluatorLogger{},
		clock:  time.Now,
		rules:  make(map[string]namedRule),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.source == nil {
		g.source = StaticRole(rolestate.DefaultRole)
	}
	if g.evaluator == nil && !g.explicit {
		g.evaluator = NewExprEvaluator(EngineCache(g.cache), EngineFunctions(g.registry))
	}
	return g
}

// Define compiles expr and stores it under name, replacing any previous
// definition. Compile errors are returned and leave the gate unchanged.
func (g *Gate) Define(name, expr string) error {
	if name == "" {
		return fmt.Errorf("gate: rule name must not be empty")
	}
	if g.evaluator == nil {
		return ErrNoEvaluator
	}
	compiled, err := g.evaluator.Compile(expr, CompileForRule(name))
	if err != nil {
		return annotate(err, engineName(g.evaluator), expr, name)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.rules[name]; !exists {
		g.order = append(g.order, name)
	}
	g.rules[name] = namedRule{expr: expr, compiled: compiled}
	return nil
}

// DefineAll defines every rule in rules, stopping at the first failure.
// Rules are defined in name order so failures are reproducible.
func (g *Gate) DefineAll(rules map[string]string) error {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := g.Define(name, rules[name]); err != nil {
			return err
		}
	}
	return nil
}

// Rules returns the defined rule names in definition order.
func (g *Gate) Rules() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// Role returns the role rules are currently evaluated against.
func (g *Gate) Role() rolestate.Role {
	return g.source.Current()
}

// Allowed evaluates the named rule for the current role.
func (g *Gate) Allowed(name string) (bool, error) {
	return g.AllowedWith(name, nil)
}

// AllowedWith evaluates the named rule for the current role with args bound.
func (g *Gate) AllowedWith(name string, args map[string]any) (bool, error) {
	return g.allowed(g.source.Current(), name, args)
}

// Evaluate runs an ad-hoc expression for the current role.
func (g *Gate) Evaluate(expr string) (any, error) {
	return g.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr with ctx. A zero ctx.Role is filled from the source
// and nil metadata from the gate.
func (g *Gate) EvaluateWith(ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	if g.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	ctx = g.prepare(ctx)
	engine := engineName(g.evaluator)
	start := time.Now()
	value, err := g.evaluator.Evaluate(ctx, expr)
	err = annotate(err, engine, expr, ctx.ruleLabel())
	g.log(engine, expr, ctx, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Decisions evaluates every defined rule for the current role. Rules that
// fail are reported as false and their errors joined.
func (g *Gate) Decisions() (map[string]bool, error) {
	return g.decisionsFor(g.source.Current())
}

func (g *Gate) decisionsFor(role rolestate.Role) (map[string]bool, error) {
	names := g.Rules()
	decisions := make(map[string]bool, len(names))
	var errs []error
	for _, name := range names {
		ok, err := g.allowed(role, name, nil)
		if err != nil {
			errs = append(errs, err)
		}
		decisions[name] = ok
	}
	return decisions, errors.Join(errs...)
}

func (g *Gate) allowed(role rolestate.Role, name string, args map[string]any) (bool, error) {
	g.mu.RLock()
	rule, ok := g.rules[name]
	g.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}

	ctx := g.prepare(RuleContext{Role: role, Args: args, Rule: name})
	engine := engineName(g.evaluator)
	start := time.Now()
	value, err := rule.compiled.Evaluate(ctx)
	err = annotate(err, engine, rule.expr, name)
	if err == nil {
		if _, isBool := value.(bool); !isBool {
			err = &EvaluationError{
				Engine: engine,
				Expr:   rule.expr,
				Rule:   name,
				Err:    fmt.Errorf("%w: got %T", ErrNotBoolean, value),
			}
		}
	}
	g.log(engine, rule.expr, ctx, time.Since(start), err)
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

func (g *Gate) prepare(ctx RuleContext) RuleContext {
	if ctx.Role == "" {
		ctx.Role = g.source.Current()
	}
	if ctx.Now == nil {
		now := g.clock()
		ctx.Now = &now
	}
	if ctx.Metadata == nil {
		ctx.Metadata = g.metadata
	}
	return ctx.withDefaults()
}

func (g *Gate) log(engine, expr string, ctx RuleContext, duration time.Duration, err error) {
	g.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Rule:     ctx.ruleLabel(),
		Role:     string(ctx.Role),
		Duration: duration,
		Err:      err,
	})
}

type engineNamer interface {
	engine() string
}

func engineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.engine()
	}
	return "custom"
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}
