package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FindProjectRoot edge cases
// =============================================================================

func TestFindProjectRoot_NonExistentDir_ReturnsAbsPath(t *testing.T) {
	nonExistent := "/nonexistent/path/that/does/not/exist"

	root, err := FindProjectRoot(nonExistent)

	require.NoError(t, err)
	assert.Equal(t, nonExistent, root)
}

func TestFindProjectRoot_DeepNesting_FindsGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	gitDir := filepath.Join(tmpDir, ".git")
	deepNested := filepath.Join(tmpDir, "a", "b", "c", "d", "e", "f", "g", "h")
	require.NoError(t, os.Mkdir(gitDir, 0o755))
	require.NoError(t, os.MkdirAll(deepNested, 0o755))

	root, err := FindProjectRoot(deepNested)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_RelativePath_ResolvesToAbsolute(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0o755))

	oldWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(oldWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	root, err := FindProjectRoot(".")

	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(root))
	expected, _ := filepath.EvalSymlinks(tmpDir)
	actual, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, expected, actual)
}

// =============================================================================
// Config merge edge cases
// =============================================================================

func TestLoad_MergeExcludePatterns_AppendsToDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "indexing:\n  exclude_patterns:\n    - \"**/.custom_ignore/**\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".codelens.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Contains(t, cfg.Indexing.ExcludePatterns, "**/node_modules/**")
	assert.Contains(t, cfg.Indexing.ExcludePatterns, "**/.custom_ignore/**")
}

func TestLoad_ZeroValuesNotMerged(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "search:\n  default_limit: 0\n  max_limit: 0\nindexing:\n  concurrency: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".codelens.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.DefaultLimit, "zero should not override default_limit")
	assert.Equal(t, 200, cfg.Search.MaxLimit, "zero should not override max_limit")
}

func TestLoad_NegativeMaxFileSize_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".codelens.yaml"), []byte("indexing:\n  max_file_size: -1\n"), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "max_file_size")
}

func TestLoad_UnreadableConfigFile_ReturnsError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("test requires non-root user")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".codelens.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database:\n  path: x.db\n"), 0o000))
	defer func() { _ = os.Chmod(configPath, 0o644) }()

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read")
}

// =============================================================================
// JSON round-trip
// =============================================================================

func TestConfig_JSONRoundTrip(t *testing.T) {
	cfg := New()
	cfg.Search.DefaultLimit = 42
	cfg.Database.Path = "custom.db"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var parsed Config
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, 42, parsed.Search.DefaultLimit)
	assert.Equal(t, "custom.db", parsed.Database.Path)
}

func TestConfig_UnmarshalInvalidJSON_ReturnsError(t *testing.T) {
	var cfg Config
	err := json.Unmarshal([]byte("{invalid"), &cfg)
	require.Error(t, err)
}
