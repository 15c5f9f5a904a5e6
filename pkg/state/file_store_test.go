package state_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-rolestate/pkg/state"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileStoreContract(t *testing.T) {
	backendContract(t, state.NewFileStore(filepath.Join(t.TempDir(), "prefs.toml")))
}

func TestFileStoreWritesPreferencesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	store := state.NewFileStore(path)
	if err := store.Save(context.Background(), "userRole", "coach"); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "[preferences]") || !strings.Contains(content, `userRole = "coach"`) {
		t.Fatalf("unexpected file content:\n%s", content)
	}
}

func TestFileStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("[preferences]\ntheme = \"dark\"\n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := state.NewFileStore(path)
	ctx := context.Background()
	if err := store.Save(ctx, "userRole", "student"); err != nil {
		t.Fatalf("save: %v", err)
	}
	theme, ok, err := store.Load(ctx, "theme")
	if err != nil || !ok || theme != "dark" {
		t.Fatalf("expected theme preserved, got value=%q ok=%v err=%v", theme, ok, err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("this is = = not toml"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := state.NewFileStore(path)
	if _, _, err := store.Load(context.Background(), "userRole"); err == nil {
		t.Fatalf("expected decode error")
	}

	shim := state.NewShim(store)
	if _, ok := shim.Read("userRole"); ok {
		t.Fatalf("expected shim to treat corrupt file as absent")
	}
}

func TestFileStoreSaveReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("this is = = not toml"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	core, logs := observer.New(zap.WarnLevel)
	store := state.NewFileStore(path, state.FileWithLogger(zap.New(core)))

	ctx := context.Background()
	if err := store.Save(ctx, "userRole", "coach"); err != nil {
		t.Fatalf("save over corrupt file: %v", err)
	}
	if logs.FilterMessage("discarding undecodable preferences file").Len() != 1 {
		t.Fatalf("expected discard to be logged, got %d entries", logs.Len())
	}

	reopened := state.NewFileStore(path)
	value, ok, err := reopened.Load(ctx, "userRole")
	if err != nil || !ok || value != "coach" {
		t.Fatalf("expected repaired file to hold coach, got value=%q ok=%v err=%v", value, ok, err)
	}
}
