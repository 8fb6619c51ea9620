// Package prefs persists Lantern's cached role hint.
// The hint lives in ~/.config/lantern/prefs.toml and only seeds the startup
// probe; the server-probed role always wins.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the persisted fields.
type Prefs struct {
	Role string `toml:"role"`
}

const defaultPrefsPath = "~/.config/lantern/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path. Any failure degrades to empty
// prefs: a broken cache must never block startup.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return Prefs{}
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Prefs{}
	}

	var p Prefs
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Prefs{}
	}
	return p
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// RoleStore exposes the cached role as the single-key get/set/delete the
// session controller expects. Errors are returned so callers can log them,
// but every failure is safe to ignore.
type RoleStore struct {
	path string
}

// NewRoleStore builds a RoleStore for the given prefs path (empty uses the
// default).
func NewRoleStore(path string) *RoleStore {
	return &RoleStore{path: path}
}

// Get returns the cached role hint, "" when absent.
func (s *RoleStore) Get() (string, error) {
	return Load(s.path).Role, nil
}

// Set persists the role hint.
func (s *RoleStore) Set(role string) error {
	p := Load(s.path)
	p.Role = role
	return Save(s.path, p)
}

// Delete clears the role hint.
func (s *RoleStore) Delete() error {
	p := Load(s.path)
	if p.Role == "" {
		return nil
	}
	p.Role = ""
	return Save(s.path, p)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
