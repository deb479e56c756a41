// Package config loads engine configuration from a TOML file with an
// environment overlay.
//
// Settings resolve in three layers: built-in defaults, then the
// configuration file, then TREEWRIGHT_* environment variables. A
// missing file is not an error; the defaults stand. Validation names
// the offending key.
package config

import "fmt"

// Config is the engine configuration.
type Config struct {
	// Workspace is the root directory served to hosts.
	Workspace string `toml:"workspace"`

	// RecipePath locates the recipe manifest. Empty means no manifest.
	RecipePath string `toml:"recipe_path"`

	// Watch re-parses sources when they change on disk.
	Watch bool `toml:"watch"`

	// WriteBack persists applied documents to disk.
	WriteBack bool `toml:"write_back"`

	// Ignore holds extra gitignore-style exclusion patterns for
	// discovery and watching.
	Ignore []string `toml:"ignore"`

	Log  LogConfig  `toml:"log"`
	Sync SyncConfig `toml:"sync"`
}

// LogConfig controls engine logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// File receives log output. Empty means stderr.
	File string `toml:"file"`
}

// SyncConfig tunes the change pipeline.
type SyncConfig struct {
	// BatchSize is the watcher's change buffer capacity.
	BatchSize int `toml:"batch_size"`

	// DebounceMS is the coalescing window for file changes, in
	// milliseconds.
	DebounceMS int `toml:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workspace: ".",
		Watch:     true,
		Log: LogConfig{
			Level: "info",
		},
		Sync: SyncConfig{
			BatchSize:  100,
			DebounceMS: 100,
		},
	}
}

// Validate checks the configuration and names the offending key.
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return &ValidationError{Key: "workspace", Message: "must not be empty"}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{
			Key:     "log.level",
			Message: fmt.Sprintf("unknown level %q", c.Log.Level),
		}
	}
	if c.Sync.BatchSize <= 0 {
		return &ValidationError{Key: "sync.batch_size", Message: "must be positive"}
	}
	if c.Sync.DebounceMS < 0 {
		return &ValidationError{Key: "sync.debounce_ms", Message: "must not be negative"}
	}
	return nil
}
