package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the fields Lantern reads from its config file.
type Config struct {
	ServerURL   string
	PollSeconds int
}

const (
	defaultConfigPath = "~/.config/lantern/config.toml"
	defaultServerURL  = "http://127.0.0.1:8400"
)

// Load locates and parses the Lantern config, falling back to defaults when
// the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{ServerURL: defaultServerURL}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL   string `toml:"server_url"`
		PollSeconds int    `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ServerURL = strings.TrimSpace(raw.ServerURL)
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}

	return cfg, nil
}

// Resolver hands the active server URL to the transport. The user can
// repoint it at runtime; the client re-reads it on every request.
type Resolver struct {
	mu  sync.RWMutex
	url string
}

// NewResolver seeds a Resolver with the configured server URL.
func NewResolver(url string) *Resolver {
	if strings.TrimSpace(url) == "" {
		url = defaultServerURL
	}
	return &Resolver{url: url}
}

// ServerURL returns the current server address.
func (r *Resolver) ServerURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.url
}

// Set repoints the resolver. Empty values are ignored.
func (r *Resolver) Set(url string) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.url = trimmed
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
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
