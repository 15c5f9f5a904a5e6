package gate

import (
	"sync"

	rolestate "github.com/goliatone/go-rolestate"
)

// Table is a decision table kept in step with a Store: every role switch
// re-evaluates all rules defined on the gate at that moment. Lookups never
// run an expression.
type Table struct {
	gate    *Gate
	binding *rolestate.Binding

	mu        sync.RWMutex
	role      rolestate.Role
	decisions map[string]bool
	err       error
}

// Bind subscribes a new Table to store. Call Close when the consumer goes
// away.
func (g *Gate) Bind(store *rolestate.Store) *Table {
	t := &Table{gate: g}

	t.mu.Lock()
	t.binding = rolestate.Bind(store, t.recompute)
	t.applyLocked(t.binding.Role())
	t.mu.Unlock()
	return t
}

// Allowed reports the cached decision for name. Unknown or failed rules are
// not allowed.
func (t *Table) Allowed(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.decisions[name]
}

// Role returns the role the table was last computed for.
func (t *Table) Role() rolestate.Role {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.role
}

// Snapshot returns a copy of the current decisions.
func (t *Table) Snapshot() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]bool, len(t.decisions))
	for name, ok := range t.decisions {
		out[name] = ok
	}
	return out
}

// Err returns the joined rule errors from the last recompute, if any.
func (t *Table) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Refresh re-evaluates the table for the role it currently holds, picking up
// rules defined after Bind.
func (t *Table) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applyLocked(t.role)
}

// Close stops following the store.
func (t *Table) Close() {
	if t.binding != nil {
		t.binding.Close()
	}
}

func (t *Table) recompute(role rolestate.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applyLocked(role)
}

func (t *Table) applyLocked(role rolestate.Role) {
	decisions, err := t.gate.decisionsFor(role)
	t.role = role
	t.decisions = decisions
	t.err = err
}
