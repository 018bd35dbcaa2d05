package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelens-dev/codelens/internal/queryfilter"
	"github.com/codelens-dev/codelens/internal/store"
)

func TestDetectIntentSymbol(t *testing.T) {
	intent := DetectIntent("parseFile", queryfilter.Filters{})
	assert.Equal(t, IntentSymbol, intent)
}

func TestDetectIntentNaturalOnWhitespace(t *testing.T) {
	intent := DetectIntent("parse the config file", queryfilter.Filters{})
	assert.Equal(t, IntentNatural, intent)
}

func TestDetectIntentNaturalOnPunctuation(t *testing.T) {
	intent := DetectIntent("config.Load()", queryfilter.Filters{})
	assert.Equal(t, IntentNatural, intent)
}

func TestDetectIntentHybridOnShortToken(t *testing.T) {
	intent := DetectIntent("x", queryfilter.Filters{})
	assert.Equal(t, IntentHybrid, intent)
}

func TestDetectIntentFileFilterForcesOffSymbolPath(t *testing.T) {
	intent := DetectIntent("parseFile", queryfilter.Filters{Paths: []string{"internal/**"}})
	assert.NotEqual(t, IntentSymbol, intent)
}

func newTestRouter(t *testing.T) (*Router, *store.Store) {
	t.Helper()
	st, err := store.Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func TestSearchEmptyTermsNoFiltersReturnsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)
	results, err := r.Search("", 10, Limits{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSymbolExactCaseScoresHigherThanCaseInsensitive(t *testing.T) {
	r, st := newTestRouter(t)

	symbols := []store.Symbol{
		{Name: "ParseFile", Kind: store.KindFunction, StartLine: 1, EndLine: 3},
	}
	chunks := []store.NewChunk{
		{SymbolIndex: 0, Type: store.ChunkSymbol, StartLine: 1, EndLine: 3, Text: "func ParseFile() {}"},
		{SymbolIndex: -1, Type: store.ChunkFile, StartLine: 1, EndLine: 3, Text: "func ParseFile() {}"},
	}
	_, err := st.IngestFile("a.go", "func ParseFile() {}", "h1", "go", symbols, chunks)
	require.NoError(t, err)

	results, err := r.Search("ParseFile", 10, Limits{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 1.0, results[0].Score)

	results, err = r.Search("parsefile", 10, Limits{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 0.9, results[0].Score)
}

func TestSearchNaturalFindsTextMatch(t *testing.T) {
	r, st := newTestRouter(t)

	content := "package sample\n\nfunc Helper() {\n\t// performs widget assembly\n}\n"
	symbols := []store.Symbol{
		{Name: "Helper", Kind: store.KindFunction, StartLine: 3, EndLine: 5},
	}
	chunks := []store.NewChunk{
		{SymbolIndex: 0, Type: store.ChunkSymbol, StartLine: 3, EndLine: 5, Text: content},
		{SymbolIndex: -1, Type: store.ChunkFile, StartLine: 1, EndLine: 5, Text: content},
	}
	_, err := st.IngestFile("helper.go", content, "h2", "go", symbols, chunks)
	require.NoError(t, err)

	results, err := r.Search("widget assembly", 10, Limits{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Snippet, "widget assembly")
}

func TestSearchRespectsLimitClamping(t *testing.T) {
	r, _ := newTestRouter(t)
	results, err := r.Search("x y z", 0, Limits{DefaultLimit: 5, MaxLimit: 10})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestToStoreFilterResolvesLanguageAlias(t *testing.T) {
	filter := toStoreFilter(queryfilter.Filters{
		Languages:        []string{"ts"},
		ExcludeLanguages: []string{"JS"},
	})
	assert.Equal(t, []string{"typescript"}, filter.Languages)
	assert.Equal(t, []string{"javascript"}, filter.ExcludeLanguages)
}

func TestSearchHybridLangAliasFiltersByCanonicalLanguage(t *testing.T) {
	r, st := newTestRouter(t)

	fileA, err := st.IngestFile("src/a.ts", "export function handler() {}\n", "hashA", "typescript",
		[]store.Symbol{{Name: "handler", Kind: store.KindFunction, StartLine: 1, EndLine: 1}},
		[]store.NewChunk{{Type: store.ChunkSymbol, StartLine: 1, EndLine: 1, Text: "export function handler() {}"}})
	require.NoError(t, err)
	require.NotZero(t, fileA)

	_, err = st.IngestFile("src/a.test.ts", "export function handler() {}\n", "hashB", "typescript",
		[]store.Symbol{{Name: "handler", Kind: store.KindFunction, StartLine: 1, EndLine: 1}},
		[]store.NewChunk{{Type: store.ChunkSymbol, StartLine: 1, EndLine: 1, Text: "export function handler() {}"}})
	require.NoError(t, err)

	results, err := r.Search("lang:ts kind:function -file:*.test.ts handler", 10, Limits{DefaultLimit: 10, MaxLimit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "src/a.ts", results[0].Path)
}

func TestNormalizeBM25Monotonic(t *testing.T) {
	weak := normalizeBM25(-1)
	strong := normalizeBM25(-10)
	assert.Greater(t, strong, weak)
	assert.GreaterOrEqual(t, strong, 0.0)
	assert.LessOrEqual(t, strong, 1.0)
}

func TestSearchNaturalDedupesFileAndSymbolChunkAtSameLine(t *testing.T) {
	r, st := newTestRouter(t)

	content := "export function login(u: string) { return u; }\n"
	symbols := []store.Symbol{
		{Name: "login", Kind: store.KindFunction, StartLine: 1, EndLine: 1},
	}
	chunks := []store.NewChunk{
		{SymbolIndex: 0, Type: store.ChunkSymbol, StartLine: 1, EndLine: 1, Text: "export function login(u: string) { return u; }"},
		{SymbolIndex: -1, Type: store.ChunkFile, StartLine: 1, EndLine: 2, Text: content},
	}
	_, err := st.IngestFile("a.ts", content, "h3", "typescript", symbols, chunks)
	require.NoError(t, err)

	results, err := r.Search(`"return u"`, 10, Limits{DefaultLimit: 10, MaxLimit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.ts", results[0].Path)
	assert.Contains(t, results[0].Snippet, "return u")
}
