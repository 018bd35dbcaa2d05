// Package config loads and deep-merges codelens configuration from
// defaults, a global user file, a project file, and environment
// variables, in that priority order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the complete codelens configuration.
type Config struct {
	Indexing    IndexingConfig          `yaml:"indexing" json:"indexing"`
	Search      SearchConfig            `yaml:"search" json:"search"`
	Database    DatabaseConfig          `yaml:"database" json:"database"`
	Performance PerformanceConfig       `yaml:"performance" json:"performance"`
	Languages   map[string]LangSettings `yaml:"languages" json:"languages"`
}

// IndexingConfig controls what the ingest pipeline walks and skips.
type IndexingConfig struct {
	ExcludePatterns []string         `yaml:"exclude_patterns" json:"exclude_patterns"`
	MaxFileSize     int64            `yaml:"max_file_size" json:"max_file_size"`
	Concurrency     int              `yaml:"concurrency" json:"concurrency"`
	Submodules      SubmoduleConfig  `yaml:"submodules" json:"submodules"`
}

// SubmoduleConfig controls whether and how git submodules are discovered
// and folded into the index walk.
type SubmoduleConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Include   []string `yaml:"include" json:"include"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
	Recursive bool     `yaml:"recursive" json:"recursive"`
}

// SearchConfig controls the query router's defaults. BM25K1 and BM25B are
// loaded and merged, but ranking does not read them: the store calls
// FTS5's bm25() with its built-in parameters.
type SearchConfig struct {
	DefaultLimit int     `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int     `yaml:"max_limit" json:"max_limit"`
	BM25K1       float64 `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B        float64 `yaml:"bm25_b" json:"bm25_b"`
}

// DatabaseConfig locates and configures the persistent store.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
	WAL  bool   `yaml:"wal" json:"wal"`
}

// PerformanceConfig tunes the query cache.
type PerformanceConfig struct {
	EnableCache  bool `yaml:"enable_cache" json:"enable_cache"`
	CacheMaxSize int  `yaml:"cache_max_size" json:"cache_max_size"`
	CacheTTLMs   int  `yaml:"cache_ttl_ms" json:"cache_ttl_ms"`
}

// LangSettings toggles per-language indexing.
type LangSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/go.sum",
}

// New returns a Config populated with documented defaults.
func New() *Config {
	return &Config{
		Indexing: IndexingConfig{
			ExcludePatterns: append([]string(nil), defaultExcludePatterns...),
			MaxFileSize:     10 * 1024 * 1024,
			Concurrency:     runtime.NumCPU(),
			Submodules: SubmoduleConfig{
				Enabled:   false,
				Recursive: true,
			},
		},
		Search: SearchConfig{
			DefaultLimit: 20,
			MaxLimit:     200,
			BM25K1:       1.2,
			BM25B:        0.75,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(".codelens", "index.db"),
			WAL:  true,
		},
		Performance: PerformanceConfig{
			EnableCache:  true,
			CacheMaxSize: 1000,
			CacheTTLMs:   5 * 60 * 1000,
		},
		Languages: map[string]LangSettings{
			"go":         {Enabled: true},
			"javascript": {Enabled: true},
			"jsx":        {Enabled: true},
			"typescript": {Enabled: true},
			"tsx":        {Enabled: true},
			"python":     {Enabled: true},
			"rust":       {Enabled: true},
			"cpp":        {Enabled: true},
			"swift":      {Enabled: true},
		},
	}
}

// Load builds a Config by deep-merging, in increasing precedence:
// defaults < global user config < project config < environment.
func Load(projectDir string) (*Config, error) {
	cfg := New()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(projectDir); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GetUserConfigPath follows the XDG Base Directory convention.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codelens", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "codelens", "config.yaml")
	}
	return filepath.Join(home, ".config", "codelens", "config.yaml")
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := New()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("load user config from %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".codelens.yaml", ".codelens.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero values from other onto c.
func (c *Config) mergeWith(other *Config) {
	if len(other.Indexing.ExcludePatterns) > 0 {
		c.Indexing.ExcludePatterns = append(c.Indexing.ExcludePatterns, other.Indexing.ExcludePatterns...)
	}
	if other.Indexing.MaxFileSize != 0 {
		c.Indexing.MaxFileSize = other.Indexing.MaxFileSize
	}
	if other.Indexing.Concurrency != 0 {
		c.Indexing.Concurrency = other.Indexing.Concurrency
	}
	if other.Indexing.Submodules.Enabled {
		c.Indexing.Submodules.Enabled = true
	}
	if len(other.Indexing.Submodules.Include) > 0 {
		c.Indexing.Submodules.Include = other.Indexing.Submodules.Include
	}
	if len(other.Indexing.Submodules.Exclude) > 0 {
		c.Indexing.Submodules.Exclude = other.Indexing.Submodules.Exclude
	}

	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.MaxLimit != 0 {
		c.Search.MaxLimit = other.Search.MaxLimit
	}
	if other.Search.BM25K1 != 0 {
		c.Search.BM25K1 = other.Search.BM25K1
	}
	if other.Search.BM25B != 0 {
		c.Search.BM25B = other.Search.BM25B
	}

	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}

	if other.Performance.CacheMaxSize != 0 {
		c.Performance.CacheMaxSize = other.Performance.CacheMaxSize
	}
	if other.Performance.CacheTTLMs != 0 {
		c.Performance.CacheTTLMs = other.Performance.CacheTTLMs
	}

	for lang, settings := range other.Languages {
		c.Languages[lang] = settings
	}
}

// Validate rejects configurations the router and store could not honor.
func (c *Config) Validate() error {
	if c.Indexing.MaxFileSize < 0 {
		return fmt.Errorf("indexing.max_file_size must be non-negative, got %d", c.Indexing.MaxFileSize)
	}
	if c.Indexing.Concurrency < 1 {
		return fmt.Errorf("indexing.concurrency must be at least 1, got %d", c.Indexing.Concurrency)
	}
	if c.Search.DefaultLimit < 0 || c.Search.MaxLimit < 0 {
		return fmt.Errorf("search limits must be non-negative")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	return nil
}

// WriteYAML writes the configuration to path for `codelens config --init`-
// style bootstrapping.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetUserConfigDir returns the directory containing the user config file.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether a global user config file is present.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindProjectRoot walks up from startDir looking for a .git directory
// or a codelens config file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	dir := absDir
	for {
		if dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		if fileExists(filepath.Join(dir, ".codelens.yaml")) || fileExists(filepath.Join(dir, ".codelens.yml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}
