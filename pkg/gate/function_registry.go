package gate

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from rules.
type Function func(args ...any) (any, error)

type registeredFunction struct {
	name string
	fn   Function
}

// FunctionRegistry holds rule helpers. Names are unique ignoring case and are
// exposed to rules with the casing used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]registeredFunction)}
}

// Register adds fn under name. Names shadowing rule variables (role,
// is_student, is_coach, now, args, metadata) or call are rejected.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("gate: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("gate: function %q is nil", name)
	case reservedName(name):
		return fmt.Errorf("gate: function name %q is reserved", name)
	}
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	if existing, ok := r.functions[key]; ok {
		return fmt.Errorf("gate: function %q already registered as %q", name, existing.name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// MustRegister is Register that panics on error, for static setup.
func (r *FunctionRegistry) MustRegister(name string, fn Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Clone returns an independent registry with the same functions.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{functions: make(map[string]registeredFunction, len(r.functions))}
	for key, entry := range r.functions {
		out.functions[key] = entry
	}
	return out
}

// Call runs the function registered under name, matched ignoring case.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("gate: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("gate: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered names, as registered, in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

func reservedName(name string) bool {
	switch strings.ToLower(name) {
	case "role", "is_student", "is_coach", "now", "args", "metadata", "call":
		return true
	}
	return false
}
