package app

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBuildAppliesOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt, err := build(Options{
		ConfigPath:  filepath.Join(dir, "missing.toml"),
		PrefsPath:   filepath.Join(dir, "prefs.toml"),
		ServerURL:   "http://haven.local:9000",
		PollSeconds: 45,
	})
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	if got := rt.resolver.ServerURL(); got != "http://haven.local:9000" {
		t.Fatalf("ServerURL() = %q, want override", got)
	}
	if got := rt.policy.IdleInterval; got != 45*time.Second {
		t.Fatalf("IdleInterval = %v, want 45s", got)
	}
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt, err := build(Options{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		PrefsPath:  filepath.Join(dir, "prefs.toml"),
	})
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	if got := rt.resolver.ServerURL(); got != "http://127.0.0.1:8400" {
		t.Fatalf("ServerURL() = %q, want default", got)
	}
	if got := rt.policy.IdleInterval; got != 30*time.Second {
		t.Fatalf("IdleInterval = %v, want default 30s", got)
	}
}
