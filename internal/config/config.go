// Package config provides configuration loading and the knowledge-base
// registry for winwin-search.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// Config represents the complete winwin-search configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	DataDir string        `yaml:"data_dir" json:"data_dir"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures indexing passes.
type IndexConfig struct {
	// Workers is the number of concurrent extraction workers (0 = NumCPU).
	Workers int `yaml:"workers" json:"workers"`

	// ExtractTimeout bounds a single extraction call.
	ExtractTimeout time.Duration `yaml:"extract_timeout" json:"extract_timeout"`

	// MaxFileSizeMB is the maximum file size to index in megabytes.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	// ExcludePatterns specifies additional path patterns to skip during scans.
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// SearchConfig configures BM25 ranking and result rendering.
type SearchConfig struct {
	// K1 is the term-frequency saturation parameter.
	K1 float64 `yaml:"k1" json:"k1"`

	// B is the document-length normalization parameter.
	B float64 `yaml:"b" json:"b"`

	// DefaultLimit is the result count used when the caller passes none.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// SnippetLength is the approximate snippet window in runes.
	SnippetLength int `yaml:"snippet_length" json:"snippet_length"`

	// CacheSize is the number of extracted documents cached for snippets.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		DataDir: DefaultDataDir(),
		Index: IndexConfig{
			Workers:        runtime.NumCPU(),
			ExtractTimeout: 30 * time.Second,
			MaxFileSizeMB:  10,
		},
		Search: SearchConfig{
			K1:            1.5,
			B:             0.75,
			DefaultLimit:  10,
			SnippetLength: 160,
			CacheSize:     256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDataDir returns the default data directory (~/.winwin-search).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".winwin-search")
	}
	return filepath.Join(home, ".winwin-search")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads configuration from path, applying defaults for missing fields
// and environment-variable overrides on top. A missing file is not an error;
// defaults are returned.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, wserrors.Wrap(wserrors.ErrCodeConfigInvalid, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, wserrors.New(wserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse config %s: %v", path, err), err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wserrors.Wrap(wserrors.ErrCodeConfigInvalid, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return wserrors.Wrap(wserrors.ErrCodeConfigInvalid, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Search.K1 <= 0 {
		return wserrors.New(wserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.k1 must be positive, got %v", c.Search.K1), nil)
	}
	if c.Search.B < 0 || c.Search.B > 1 {
		return wserrors.New(wserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.b must be in [0,1], got %v", c.Search.B), nil)
	}
	if c.Search.DefaultLimit <= 0 {
		return wserrors.New(wserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.default_limit must be positive, got %d", c.Search.DefaultLimit), nil)
	}
	if c.Index.MaxFileSizeMB <= 0 {
		return wserrors.New(wserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("index.max_file_size_mb must be positive, got %d", c.Index.MaxFileSizeMB), nil)
	}
	return nil
}

// KBDir returns the data directory for one knowledge base.
func (c *Config) KBDir(kbID string) string {
	return filepath.Join(c.DataDir, "kb", kbID)
}

// RegistryPath returns the knowledge-base registry location.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.DataDir, "registry.yaml")
}

// applyEnvOverrides applies WINWIN_* environment variables on top of the
// loaded configuration. Env vars have the highest priority.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WINWIN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("WINWIN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WINWIN_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Index.Workers = n
		}
	}
	if v := os.Getenv("WINWIN_BM25_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Search.K1 = f
		}
	}
	if v := os.Getenv("WINWIN_BM25_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.Search.B = f
		}
	}
}
