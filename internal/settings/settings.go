// Package settings persists the runtime-editable settings of the service:
// the REST API key, this service's public base URL and the agent credentials.
package settings

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings holds values editable from the settings page.
type Settings struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	AgentAPIKey string `yaml:"agent_api_key"`
	AgentAPIURL string `yaml:"agent_api_url"`
}

// AgentConfigured reports whether enrichment requests can be sent.
func (s Settings) AgentConfigured() bool {
	return s.AgentAPIKey != "" && s.AgentAPIURL != "" && s.BaseURL != ""
}

// Provider exposes a consistent snapshot of the current settings.
type Provider interface {
	Get() Settings
}

// Store keeps settings in memory and mirrors every change to a YAML file.
type Store struct {
	mu       sync.RWMutex
	path     string
	current  Settings
	defaults Settings
}

// fileSettings mirrors the on-disk document, including keys from older files.
type fileSettings struct {
	Settings       `yaml:",inline"`
	WebhookBaseURL string `yaml:"webhook_base_url,omitempty"`
}

// Open loads settings from path, creating the file with defaults when absent.
// defaults supplies BaseURL and AgentAPIURL for fresh files; an API key is
// always generated.
func Open(path string, defaults Settings) (*Store, error) {
	s := &Store{path: path, defaults: defaults}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fresh := defaults
		fresh.APIKey, err = GenerateAPIKey()
		if err != nil {
			return nil, err
		}
		s.current = fresh
		if err := s.persist(fresh); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var doc fileSettings
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	loaded := doc.Settings
	dirty := false
	if loaded.APIKey == "" {
		if loaded.APIKey, err = GenerateAPIKey(); err != nil {
			return nil, err
		}
		dirty = true
	}
	if loaded.BaseURL == "" {
		loaded.BaseURL = doc.WebhookBaseURL
		if loaded.BaseURL == "" {
			loaded.BaseURL = defaults.BaseURL
		}
		dirty = true
	}

	s.current = loaded
	if dirty {
		if err := s.persist(loaded); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the settings and writes them to disk. An empty API key is
// replaced by a freshly generated one.
func (s *Store) Update(next Settings) (Settings, error) {
	next.APIKey = strings.TrimSpace(next.APIKey)
	next.BaseURL = strings.TrimRight(strings.TrimSpace(next.BaseURL), "/")
	next.AgentAPIKey = strings.TrimSpace(next.AgentAPIKey)
	next.AgentAPIURL = strings.TrimRight(strings.TrimSpace(next.AgentAPIURL), "/")

	if next.APIKey == "" {
		key, err := GenerateAPIKey()
		if err != nil {
			return Settings{}, err
		}
		next.APIKey = key
	}
	if next.BaseURL == "" {
		next.BaseURL = s.defaults.BaseURL
	}
	if next.AgentAPIURL == "" {
		next.AgentAPIURL = s.defaults.AgentAPIURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(next); err != nil {
		return Settings{}, err
	}
	s.current = next
	return next, nil
}

// RotateAPIKey replaces the API key and returns the new value.
func (s *Store) RotateAPIKey() (string, error) {
	next := s.Get()
	next.APIKey = ""
	updated, err := s.Update(next)
	if err != nil {
		return "", err
	}
	return updated.APIKey, nil
}

func (s *Store) persist(value Settings) error {
	out, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// GenerateAPIKey returns 32 random bytes encoded as unpadded URL-safe base64.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ Provider = (*Store)(nil)
