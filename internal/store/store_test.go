package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	v, err := SchemaVersion(s.DB())
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestIngestFileIsAtomicAndReplacesRows(t *testing.T) {
	s := openTestStore(t)

	symbols := []Symbol{
		{Name: "Foo", Kind: KindFunction, StartLine: 1, EndLine: 3},
	}
	chunks := []NewChunk{
		{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 3, Text: "func Foo() {}"},
		{SymbolIndex: -1, Type: ChunkFile, StartLine: 1, EndLine: 3, Text: "func Foo() {}"},
	}

	fileID, err := s.IngestFile("a.go", "func Foo() {}", "hash1", "go", symbols, chunks)
	require.NoError(t, err)
	assert.NotZero(t, fileID)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.Symbols)
	assert.Equal(t, 2, stats.Chunks)

	matches, err := s.FindSymbolsByName("Foo", SymbolFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.go", matches[0].Path)

	// Re-ingest with a different symbol set: old rows must be gone.
	symbols2 := []Symbol{
		{Name: "Bar", Kind: KindFunction, StartLine: 1, EndLine: 2},
	}
	chunks2 := []NewChunk{
		{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 2, Text: "func Bar() {}"},
	}
	_, err = s.IngestFile("a.go", "func Bar() {}", "hash2", "go", symbols2, chunks2)
	require.NoError(t, err)

	matches, err = s.FindSymbolsByName("Foo", SymbolFilter{})
	require.NoError(t, err)
	assert.Empty(t, matches, "old symbol should have been replaced")

	matches, err = s.FindSymbolsByName("Bar", SymbolFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Symbols)
	assert.Equal(t, 1, stats.Chunks)
}

func TestDeleteFileCascades(t *testing.T) {
	s := openTestStore(t)

	symbols := []Symbol{{Name: "Foo", Kind: KindFunction, StartLine: 1, EndLine: 1}}
	chunks := []NewChunk{{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 1, Text: "Foo"}}
	_, err := s.IngestFile("a.go", "Foo", "h", "go", symbols, chunks)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile("a.go"))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Files)
	assert.Equal(t, 0, stats.Symbols)
	assert.Equal(t, 0, stats.Chunks)
}

func TestSearchChunksFindsByFTS(t *testing.T) {
	s := openTestStore(t)

	symbols := []Symbol{{Name: "Login", Kind: KindFunction, StartLine: 1, EndLine: 5}}
	chunks := []NewChunk{
		{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 5, Text: "func Login(user string) error { return nil }"},
	}
	_, err := s.IngestFile("auth.go", "func Login...", "h", "go", symbols, chunks)
	require.NoError(t, err)

	matches, err := s.SearchChunks("Login", SymbolFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "auth.go", matches[0].Path)
	assert.Equal(t, "Login", matches[0].SymbolName)
}

func TestAllPathsReturnsIndexedPaths(t *testing.T) {
	s := openTestStore(t)

	_, err := s.IngestFile("a.go", "a", "h1", "go", nil, nil)
	require.NoError(t, err)
	_, err = s.IngestFile("b.go", "b", "h2", "go", nil, nil)
	require.NoError(t, err)

	paths, err := s.AllPaths()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, paths)
}

func TestIngestFileUpdateKeepsStableFileID(t *testing.T) {
	s := openTestStore(t)

	idA, err := s.IngestFile("a.go", "func A() {}", "ha1", "go",
		[]Symbol{{Name: "A", Kind: KindFunction, StartLine: 1, EndLine: 1}},
		[]NewChunk{{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 1, Text: "func A() {}"}})
	require.NoError(t, err)

	idB, err := s.IngestFile("b.go", "func B() {}", "hb1", "go",
		[]Symbol{{Name: "B", Kind: KindFunction, StartLine: 1, EndLine: 1}},
		[]NewChunk{{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 1, Text: "func B() {}"}})
	require.NoError(t, err)
	require.NotEqual(t, idA, idB)

	// Updating a.go after other inserts must resolve a.go's own id, not
	// whatever row happened to be inserted last on the connection.
	idA2, err := s.IngestFile("a.go", "func A2() {}", "ha2", "go",
		[]Symbol{{Name: "A2", Kind: KindFunction, StartLine: 1, EndLine: 1}},
		[]NewChunk{{SymbolIndex: 0, Type: ChunkSymbol, StartLine: 1, EndLine: 1, Text: "func A2() {}"}})
	require.NoError(t, err)
	assert.Equal(t, idA, idA2)

	matches, err := s.FindSymbolsByName("A2", SymbolFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.go", matches[0].Path)

	matches, err = s.FindSymbolsByName("B", SymbolFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b.go", matches[0].Path)
}
