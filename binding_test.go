package rolestate

import (
	"context"
	"testing"
	"time"
)

func TestBindTakesInitialSnapshot(t *testing.T) {
	store := New()
	_ = store.Switch(Coach)

	b := Bind(store, nil)
	defer b.Close()
	if b.Role() != Coach {
		t.Fatalf("expected coach snapshot, got %q", b.Role())
	}
	if b.Token().IsZero() {
		t.Fatalf("expected binding to hold a token")
	}
}

func TestBindRefreshesAndCallsOnChange(t *testing.T) {
	store := New()
	var changes []Role
	b := Bind(store, func(role Role) { changes = append(changes, role) })
	defer b.Close()

	_ = store.Switch(Coach)
	_ = store.Switch(Student)

	if b.Role() != Student {
		t.Fatalf("expected student snapshot, got %q", b.Role())
	}
	if len(changes) != 2 || changes[0] != Coach || changes[1] != Student {
		t.Fatalf("unexpected change sequence: %v", changes)
	}
}

func TestBindingCloseUnsubscribes(t *testing.T) {
	store := New()
	var changes int
	b := Bind(store, func(Role) { changes++ })
	if store.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", store.Subscribers())
	}

	b.Close()
	b.Close()
	if store.Subscribers() != 0 {
		t.Fatalf("expected binding to unsubscribe, got %d", store.Subscribers())
	}

	_ = store.Switch(Coach)
	if changes != 0 {
		t.Fatalf("expected no change after close, got %d", changes)
	}
	if b.Role() != Student {
		t.Fatalf("expected snapshot frozen at close, got %q", b.Role())
	}
}

func TestBindingsAreIndependent(t *testing.T) {
	store := New()
	header := Bind(store, nil)
	tabs := Bind(store, nil)
	defer tabs.Close()

	header.Close()
	_ = store.Switch(Coach)

	if header.Role() != Student {
		t.Fatalf("expected closed binding to keep old snapshot, got %q", header.Role())
	}
	if tabs.Role() != Coach {
		t.Fatalf("expected live binding to refresh, got %q", tabs.Role())
	}
}

func TestWatchDeliversInitialAndUpdates(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Watch(ctx, store)
	if got := receive(t, ch); got != Student {
		t.Fatalf("expected initial student, got %q", got)
	}

	_ = store.Switch(Coach)
	if got := receive(t, ch); got != Coach {
		t.Fatalf("expected coach, got %q", got)
	}
}

func TestWatchKeepsLatestForSlowReader(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Watch(ctx, store)
	_ = store.Switch(Coach)
	_ = store.Switch(Student)
	_ = store.Switch(Coach)

	if got := receive(t, ch); got != Coach {
		t.Fatalf("expected latest role coach, got %q", got)
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := Watch(ctx, store)
	<-ch

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if store.Subscribers() != 0 {
					t.Fatalf("expected watch to unsubscribe, got %d", store.Subscribers())
				}
				_ = store.Switch(Coach)
				return
			}
		case <-deadline:
			t.Fatalf("expected channel to close after cancel")
		}
	}
}

func receive(t *testing.T, ch <-chan Role) Role {
	t.Helper()
	select {
	case role, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		return role
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for role")
	}
	return ""
}
