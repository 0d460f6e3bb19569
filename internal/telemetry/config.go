// Package telemetry sends anonymous, opt-in usage events for StoryWing.
// Nothing is sent until the user runs "storywing telemetry enable", and
// events never carry PRD or story content.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ConfigFileName is stored in the global config directory.
const ConfigFileName = "telemetry.json"

// Config is the persisted opt-in state.
type Config struct {
	Enabled bool `json:"enabled"`
	// AnonymousID is a random UUID generated once; it identifies an
	// install, never a person.
	AnonymousID string `json:"anonymous_id"`
}

// Store reads and writes Config under a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a Store for dir on fs.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path is the config file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ConfigFileName)
}

// Load returns the stored config, or a disabled one with a fresh id when
// none exists yet.
func (s *Store) Load() (*Config, error) {
	cfg := &Config{}
	data, err := afero.ReadFile(s.fs, s.Path())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read telemetry config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse telemetry config: %w", err)
		}
	}
	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.New().String()
	}
	return cfg, nil
}

// Save writes cfg with owner-only permissions.
func (s *Store) Save(cfg *Config) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal telemetry config: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write telemetry config: %w", err)
	}
	return nil
}
