// Package gate evaluates named role rules used for conditional rendering and
// navigation: "can the active role see the roster tab", "may this role open
// the badge editor", and so on.
//
// Rules are expressions over a small environment:
//
//	role        "student" or "coach"
//	is_student  bool
//	is_coach    bool
//	now         evaluation time
//	args        per-call arguments
//	metadata    gate-wide metadata
//
// plus any function registered on a FunctionRegistry. The default engine is
// expr-lang/expr; cel-go is available through NewCELEvaluator and goja through
// NewJSEvaluator when built with the js_eval tag.
//
// A Gate reads the role from a RoleSource on every evaluation. Table binds a
// Gate to a rolestate.Store and keeps a decision table that is recomputed on
// every switch, for consumers that only need cheap lookups.
package gate
