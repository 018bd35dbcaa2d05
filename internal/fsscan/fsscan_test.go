package fsscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterShouldIndexExcludesGlobs(t *testing.T) {
	f := NewFilter([]string{"**/node_modules/**", "**/*.generated.go"}, 0, []string{".go"})

	assert.False(t, f.ShouldIndex("vendor/node_modules/pkg/index.go", 10))
	assert.False(t, f.ShouldIndex("internal/foo.generated.go", 10))
	assert.True(t, f.ShouldIndex("internal/foo.go", 10))
}

func TestFilterShouldIndexMaxSize(t *testing.T) {
	f := NewFilter(nil, 100, []string{".go"})

	assert.True(t, f.ShouldIndex("main.go", 99))
	assert.False(t, f.ShouldIndex("main.go", 101))
}

func TestFilterShouldIndexUnregisteredExtension(t *testing.T) {
	f := NewFilter(nil, 0, []string{".go", ".py"})

	assert.False(t, f.ShouldIndex("README.rst", 10))
	assert.True(t, f.ShouldIndex("main.py", 10))
}

func TestFilterNoExtensionsMeansNoRejection(t *testing.T) {
	f := NewFilter(nil, 0, nil)
	assert.True(t, f.ShouldIndex("whatever.xyz", 10))
}

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("package main"))
	b := HashBytes([]byte("package main"))
	c := HashBytes([]byte("package other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.go")
	content := []byte("package sample\n\nfunc Hello() {}\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes(content), got)
}
