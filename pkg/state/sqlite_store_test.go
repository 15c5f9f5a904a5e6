package state_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-rolestate/pkg/state"
)

func TestSQLiteStoreContract(t *testing.T) {
	store, err := state.OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	backendContract(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	ctx := context.Background()

	first, err := state.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(ctx, "userRole", "coach"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := state.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	value, ok, err := second.Load(ctx, "userRole")
	if err != nil || !ok || value != "coach" {
		t.Fatalf("expected coach after reopen, got value=%q ok=%v err=%v", value, ok, err)
	}
}

func TestSQLiteStoreClosed(t *testing.T) {
	store, err := state.OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := store.Save(context.Background(), "userRole", "coach"); !errors.Is(err, state.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, _, err := store.Load(context.Background(), "userRole"); !errors.Is(err, state.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
