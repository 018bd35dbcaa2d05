package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// envPrefix is prepended to every dotted config path to form its
// override variable name: indexing.max_file_size becomes
// CODELENS_INDEXING_MAX_FILE_SIZE.
const envPrefix = "CODELENS_"

// applyEnvOverrides layers environment variables over cfg, the highest
// precedence tier in Load. Every recognized option at path
// section.key[.subkey] is overridden by CODELENS_SECTION_KEY[_SUBKEY]
// (dots uppercased and replaced with underscores), with the value
// coerced by shape: "true"/"false" becomes bool, an integer literal
// becomes a number, a JSON array literal becomes a list, anything else
// stays a string. An unset or empty variable leaves cfg untouched.
func applyEnvOverrides(cfg *Config) {
	if n, ok := envInt64("indexing.max_file_size"); ok {
		cfg.Indexing.MaxFileSize = n
	}
	if n, ok := envInt("indexing.concurrency"); ok {
		cfg.Indexing.Concurrency = n
	}
	if patterns, ok := envStringList("indexing.exclude_patterns"); ok {
		cfg.Indexing.ExcludePatterns = append(cfg.Indexing.ExcludePatterns, patterns...)
	}

	if n, ok := envInt("search.default_limit"); ok {
		cfg.Search.DefaultLimit = n
	}
	if n, ok := envInt("search.max_limit"); ok {
		cfg.Search.MaxLimit = n
	}

	if v, ok := envString("database.path"); ok {
		cfg.Database.Path = v
	}
	if b, ok := envBool("database.wal"); ok {
		cfg.Database.WAL = b
	}

	if b, ok := envBool("performance.enable_cache"); ok {
		cfg.Performance.EnableCache = b
	}
	if n, ok := envInt("performance.cache_max_size"); ok {
		cfg.Performance.CacheMaxSize = n
	}
	if n, ok := envInt("performance.cache_ttl_ms"); ok {
		cfg.Performance.CacheTTLMs = n
	}

	applyLanguageEnvOverrides(cfg)
}

// applyLanguageEnvOverrides handles languages.<lang>.enabled, whose
// middle path segment is open-ended rather than one of Config's fixed
// fields. It checks every language already known to cfg (defaults plus
// whatever the user/project config added) rather than scanning the
// whole environment, since a lang only matters once it has a
// LangSettings entry to toggle.
func applyLanguageEnvOverrides(cfg *Config) {
	for lang, settings := range cfg.Languages {
		path := "languages." + lang + ".enabled"
		if b, ok := envBool(path); ok {
			settings.Enabled = b
			cfg.Languages[lang] = settings
		}
	}
}

// envName converts a dotted config path into its override variable
// name, e.g. "performance.cache_ttl_ms" -> "CODELENS_PERFORMANCE_CACHE_TTL_MS".
func envName(path string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

// envRaw returns the raw environment value for path, treating an
// empty value the same as unset so a variable can be declared without
// forcing a value.
func envRaw(path string) (string, bool) {
	v, ok := os.LookupEnv(envName(path))
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(path string) (string, bool) {
	return envRaw(path)
}

func envBool(path string) (bool, bool) {
	v, ok := envRaw(path)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(path string) (int, bool) {
	v, ok := envRaw(path)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt64(path string) (int64, bool) {
	v, ok := envRaw(path)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// envStringList reads path as a JSON array literal, e.g.
// CODELENS_INDEXING_EXCLUDE_PATTERNS='["**/testdata/**", "**/*.pb.go"]'.
func envStringList(path string) ([]string, bool) {
	v, ok := envRaw(path)
	if !ok || !strings.HasPrefix(strings.TrimSpace(v), "[") {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		return nil, false
	}
	return list, true
}
