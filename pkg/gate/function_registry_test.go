package gate_test

import (
	"testing"

	"github.com/goliatone/go-rolestate/pkg/gate"
)

func TestFunctionRegistry(t *testing.T) {
	registry := gate.NewFunctionRegistry()
	echo := func(args ...any) (any, error) { return len(args), nil }

	if err := registry.Register("Echo", echo); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("echo", echo); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	for _, name := range []string{"role", "IS_COACH", "call", ""} {
		if err := registry.Register(name, echo); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	if err := registry.Register("nilfn", nil); err == nil {
		t.Fatalf("expected nil function to be rejected")
	}

	got, err := registry.Call("ECHO", 1, 2, 3)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected error for unknown function")
	}

	clone := registry.Clone()
	if err := clone.Register("other", echo); err != nil {
		t.Fatalf("register on clone: %v", err)
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "Echo" {
		t.Fatalf("clone must not affect original, got %v", names)
	}
	if names := clone.Names(); len(names) != 2 {
		t.Fatalf("expected 2 names on clone, got %v", names)
	}
}

func TestFunctionRegistryNil(t *testing.T) {
	var registry *gate.FunctionRegistry
	if registry.Clone() != nil {
		t.Fatalf("nil registry clone should be nil")
	}
	if registry.Names() != nil {
		t.Fatalf("nil registry names should be nil")
	}
	if _, err := registry.Call("echo"); err == nil {
		t.Fatalf("expected error from nil registry")
	}
}

func TestFunctionRegistryMustRegisterPanicsOnReservedName(t *testing.T) {
	registry := gate.NewFunctionRegistry()
	registry.MustRegister("  minLessons  ", func(args ...any) (any, error) { return 3, nil })
	if names := registry.Names(); len(names) != 1 || names[0] != "minLessons" {
		t.Fatalf("expected trimmed name, got %v", names)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustRegister to panic for reserved name")
		}
	}()
	registry.MustRegister("now", func(args ...any) (any, error) { return nil, nil })
}
