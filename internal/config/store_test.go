package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openMemory(t *testing.T, doc Document) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(doc)
	store, err := Open(context.Background(), backend)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store, backend
}

func TestStoreDefaults(t *testing.T) {
	store, _ := openMemory(t, Document{})

	if got := store.APIURL(); got != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", got, DefaultAPIURL)
	}
	if store.IsAuthenticated() {
		t.Error("IsAuthenticated should be false without an API key")
	}
	if store.SelectedBackup() != nil {
		t.Error("SelectedBackup should be nil")
	}
}

func TestStoreSetAndGet(t *testing.T) {
	ctx := context.Background()
	store, backend := openMemory(t, DefaultDocument())

	if err := store.Set(ctx, KeyDefaultOrg, "acme.okta.com"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, KeyAPIURL, "https://staging.example.com/"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(KeyDefaultOrg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "acme.okta.com" {
		t.Errorf("defaultOrg = %v, want acme.okta.com", got)
	}
	// 末尾のスラッシュは除去される
	if url := store.APIURL(); url != "https://staging.example.com" {
		t.Errorf("APIURL = %q", url)
	}
	if backend.Saves != 2 {
		t.Errorf("Saves = %d, want 2", backend.Saves)
	}
}

func TestStoreSetUnknownKey(t *testing.T) {
	store, backend := openMemory(t, DefaultDocument())

	err := store.Set(context.Background(), "color", "always")
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Set error = %v, want ErrUnknownKey", err)
	}
	if backend.Saves != 0 {
		t.Errorf("unknown key should not persist anything, Saves = %d", backend.Saves)
	}
	if _, err := store.Get("color"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get error = %v, want ErrUnknownKey", err)
	}
}

func TestStoreSelectedBackup(t *testing.T) {
	ctx := context.Background()
	store, _ := openMemory(t, DefaultDocument())

	sel := SelectedBackup{ID: "abc123", OrgName: "acme", Timestamp: "2026-01-02T03:04:05Z", ConnectionID: "conn-1"}
	if err := store.SetSelectedBackup(ctx, sel); err != nil {
		t.Fatalf("SetSelectedBackup failed: %v", err)
	}

	got := store.SelectedBackup()
	if got == nil || *got != sel {
		t.Fatalf("SelectedBackup = %+v, want %+v", got, sel)
	}

	// 返り値を書き換えてもストアには影響しない
	got.ID = "mutated"
	if store.SelectedBackup().ID != "abc123" {
		t.Error("SelectedBackup returned an aliased pointer")
	}

	if err := store.SetSelectedBackup(ctx, SelectedBackup{}); err == nil {
		t.Error("SetSelectedBackup without id should fail")
	}
	if store.SelectedBackup().ID != "abc123" {
		t.Error("failed SetSelectedBackup must not change the selection")
	}

	if err := store.ClearSelectedBackup(ctx); err != nil {
		t.Fatalf("ClearSelectedBackup failed: %v", err)
	}
	if store.SelectedBackup() != nil {
		t.Error("selection should be cleared")
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store, backend := openMemory(t, Document{
		APIKey:         "sk_live_123",
		APIURL:         "https://staging.example.com",
		DefaultOrg:     "acme",
		SelectedBackup: &SelectedBackup{ID: "abc"},
	})

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if store.APIURL() != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", store.APIURL())
	}
	if store.DefaultOrg() != "" {
		t.Errorf("DefaultOrg = %q, want empty", store.DefaultOrg())
	}
	if store.IsAuthenticated() {
		t.Error("API key should be cleared")
	}
	if store.SelectedBackup() != nil {
		t.Error("selection should be cleared")
	}

	persisted, _ := backend.Load(ctx)
	if persisted != DefaultDocument() {
		t.Errorf("persisted = %+v, want defaults", persisted)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "butterfly", "config.yaml")

	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	store, err := Open(ctx, backend)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// ファイルがなくてもデフォルトが読める
	if store.APIURL() != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", store.APIURL())
	}

	if err := store.SetAPIKey(ctx, "sk_test_abc"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}
	if err := store.Set(ctx, KeyDefaultOrg, "acme"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	store2, err := Open(ctx, reopened)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store2.APIKey() != "sk_test_abc" {
		t.Errorf("APIKey = %q, want sk_test_abc", store2.APIKey())
	}
	if store2.DefaultOrg() != "acme" {
		t.Errorf("DefaultOrg = %q, want acme", store2.DefaultOrg())
	}
	if store2.Path() != path {
		t.Errorf("Path = %q, want %q", store2.Path(), path)
	}
}

func TestFileBackendSelectedBackup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "butterfly", "config.yaml")

	reopen := func() *Store {
		t.Helper()
		backend, err := NewFileBackend(path)
		if err != nil {
			t.Fatalf("NewFileBackend failed: %v", err)
		}
		store, err := Open(ctx, backend)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return store
	}

	want := SelectedBackup{ID: "abc123", OrgName: "Acme", Timestamp: "2026-03-01T10:00:00Z", ConnectionID: "c1"}
	if err := reopen().SetSelectedBackup(ctx, want); err != nil {
		t.Fatalf("SetSelectedBackup failed: %v", err)
	}

	store := reopen()
	got := store.SelectedBackup()
	if got == nil || *got != want {
		t.Fatalf("SelectedBackup after reopen = %+v, want %+v", got, want)
	}

	if err := store.ClearSelectedBackup(ctx); err != nil {
		t.Fatalf("ClearSelectedBackup failed: %v", err)
	}
	if got := reopen().SelectedBackup(); got != nil {
		t.Errorf("SelectedBackup after clear = %+v, want nil", got)
	}
}

func TestFileBackendLoadsExistingSelection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "api_key: sk_test\nselected_backup:\n  id: b9\n  org_name: Acme\n  timestamp: \"2026-02-01T00:00:00Z\"\n  connection_id: c2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	store, err := Open(ctx, backend)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	sel := store.SelectedBackup()
	if sel == nil || sel.ID != "b9" || sel.ConnectionID != "c2" {
		t.Errorf("SelectedBackup = %+v", sel)
	}
	if store.APIKey() != "sk_test" {
		t.Errorf("APIKey = %q", store.APIKey())
	}
}

func TestDefaultPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}
	want := filepath.Join(dir, AppName, "config.yaml")
	if got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}
