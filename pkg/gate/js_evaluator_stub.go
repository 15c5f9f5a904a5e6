//go:build !js_eval

package gate

// NewJSEvaluator returns nil: the goja engine is only compiled in with the
// js_eval build tag.
func NewJSEvaluator(...EngineOption) Evaluator {
	return nil
}

// JSAvailable reports whether NewJSEvaluator returns a working evaluator.
func JSAvailable() bool { return false }
