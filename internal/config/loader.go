package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileSystem abstracts file access so loading can be tested against
// an in-memory tree.
type FileSystem interface {
	fs.FS
	ReadFile(name string) ([]byte, error)
}

// OSFS implements FileSystem over the real file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at name.
func (OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// envPrefix guards which environment variables the overlay reads.
const envPrefix = "TREEWRIGHT_"

// Load resolves the configuration: defaults, then the file at path,
// then the environment overlay. A missing file leaves the defaults in
// place. The result is validated.
func Load(path string) (*Config, error) {
	return LoadWithFS(OSFS{}, path)
}

// LoadWithFS is Load over an explicit file system.
func LoadWithFS(fsys FileSystem, path string) (*Config, error) {
	cfg := Default()

	data, err := fsys.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	case os.IsNotExist(err):
		// Defaults stand.
	default:
		return nil, &ParseError{Path: path, Err: err}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays TREEWRIGHT_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v, ok := lookup("WORKSPACE"); ok {
		cfg.Workspace = v
	}
	if v, ok := lookup("RECIPES"); ok {
		cfg.RecipePath = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := lookup("IGNORE"); ok {
		cfg.Ignore = splitList(v)
	}
	if v, ok := lookup("SYNC_BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Key: envPrefix + "SYNC_BATCH_SIZE", Message: "not an integer"}
		}
		cfg.Sync.BatchSize = n
	}
	if v, ok := lookup("SYNC_DEBOUNCE_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Key: envPrefix + "SYNC_DEBOUNCE_MS", Message: "not an integer"}
		}
		cfg.Sync.DebounceMS = n
	}
	if v, ok := lookup("WATCH"); ok {
		b, err := parseBool(v)
		if err != nil {
			return &ValidationError{Key: envPrefix + "WATCH", Message: "not a boolean"}
		}
		cfg.Watch = b
	}
	if v, ok := lookup("WRITE_BACK"); ok {
		b, err := parseBool(v)
		if err != nil {
			return &ValidationError{Key: envPrefix + "WRITE_BACK", Message: "not a boolean"}
		}
		cfg.WriteBack = b
	}
	return nil
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(envPrefix + name)
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool accepts the usual spellings of truth.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
