package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p := Load("")
	if p.Role != "" {
		t.Fatalf("Role = %q, want empty", p.Role)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.toml")
	if err := os.WriteFile(path, []byte("role = \"admin\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load(path)
	if p.Role != "admin" {
		t.Fatalf("Role = %q, want admin", p.Role)
	}
}

func TestLoad_MalformedFileDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.toml")
	if err := os.WriteFile(path, []byte("role = [broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load(path)
	if p.Role != "" {
		t.Fatalf("Role = %q, want empty on parse failure", p.Role)
	}
}

func TestRoleStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	store := NewRoleStore(path)

	role, err := store.Get()
	if err != nil || role != "" {
		t.Fatalf("Get = %q, %v; want empty, nil", role, err)
	}

	if err := store.Set("visitor"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	role, err = store.Get()
	if err != nil || role != "visitor" {
		t.Fatalf("Get = %q, %v; want visitor, nil", role, err)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	role, err = store.Get()
	if err != nil || role != "" {
		t.Fatalf("Get after Delete = %q, %v; want empty, nil", role, err)
	}
}

func TestRoleStore_SetFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// A file where the parent directory should be makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store := NewRoleStore(filepath.Join(blocker, "prefs.toml"))

	if err := store.Set("admin"); err == nil {
		t.Fatalf("Set returned nil error, want failure")
	}
}
