// Package query implements the Query Router: it classifies a query's
// intent, drives the store's symbol and full-text search paths, and
// fuses their results into a single ranked list.
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/codelens-dev/codelens/internal/clerr"
	"github.com/codelens-dev/codelens/internal/queryfilter"
	"github.com/codelens-dev/codelens/internal/store"
)

// Intent is the cheap, deterministic classification of a query.
type Intent string

const (
	IntentSymbol  Intent = "symbol"
	IntentNatural Intent = "natural"
	IntentHybrid  Intent = "hybrid"
)

// SearchResult is one ranked hit, the shape every intent's execution
// path converges to.
type SearchResult struct {
	Kind      store.SymbolKind
	Name      string
	Path      string
	StartLine int
	EndLine   int
	Score     float64
	Snippet   string
}

// Limits bounds the limit parameter accepted by Search.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// Router executes searches against a Store.
type Router struct {
	store *store.Store
}

// New builds a Router over st.
func New(st *store.Store) *Router {
	return &Router{store: st}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// DetectIntent classifies terms (already stripped of filter tokens by
// queryfilter.Parse). A file: filter forces a path-scoped natural or
// hybrid scan rather than a pure symbol lookup.
func DetectIntent(terms string, filters queryfilter.Filters) Intent {
	trimmed := strings.TrimSpace(terms)
	hasFileFilter := len(filters.Paths) > 0 || len(filters.ExcludePaths) > 0

	if trimmed != "" && identifierPattern.MatchString(trimmed) && len(trimmed) >= 2 && !hasFileFilter {
		return IntentSymbol
	}
	if containsWhitespaceOrPunctuation(trimmed) {
		return IntentNatural
	}
	return IntentHybrid
}

func containsWhitespaceOrPunctuation(s string) bool {
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
			continue
		default:
			return true
		}
	}
	return false
}

// Search implements the search(query, limit) -> [SearchResult] contract.
func (r *Router) Search(raw string, limit int, limits Limits) ([]SearchResult, error) {
	return r.SearchWithIntent(raw, limit, limits, "")
}

// SearchWithIntent is Search with the intent classifier overridden by
// forced, when non-empty, so callers (the `find --intent` flag) can pin
// a query to the symbol, natural, or hybrid execution path regardless of
// what DetectIntent would have picked.
func (r *Router) SearchWithIntent(raw string, limit int, limits Limits, forced Intent) ([]SearchResult, error) {
	parsed := queryfilter.Parse(raw)
	terms := strings.TrimSpace(parsed.Terms)

	if terms == "" && isEmptyFilterSet(parsed.Filters) {
		return nil, nil
	}

	limit = clampLimit(limit, limits)
	filter := toStoreFilter(parsed.Filters)

	intent := forced
	if intent == "" {
		intent = DetectIntent(terms, parsed.Filters)
	}

	switch intent {
	case IntentSymbol:
		return r.searchSymbol(terms, filter, limit)
	case IntentNatural:
		return r.searchNatural(terms, filter, limit)
	default:
		return r.searchHybrid(terms, filter, limit)
	}
}

func isEmptyFilterSet(f queryfilter.Filters) bool {
	return len(f.Languages) == 0 && len(f.Kinds) == 0 && len(f.Paths) == 0 &&
		len(f.ExcludeLanguages) == 0 && len(f.ExcludeKinds) == 0 && len(f.ExcludePaths) == 0
}

func clampLimit(limit int, limits Limits) int {
	def, max := limits.DefaultLimit, limits.MaxLimit
	if def <= 0 {
		def = 20
	}
	if max <= 0 {
		max = 200
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

// languageAliases maps the short codes users type in a lang: filter
// onto the canonical language name the parser registry tags files with,
// so "lang:ts" matches files the TypeScript parser tagged "typescript".
var languageAliases = map[string]string{
	"ts":    "typescript",
	"tsx":   "tsx",
	"js":    "javascript",
	"jsx":   "jsx",
	"go":    "go",
	"py":    "python",
	"rb":    "ruby",
	"rs":    "rust",
	"cpp":   "cpp",
	"cc":    "cpp",
	"swift": "swift",
}

func canonicalLanguages(raw []string) []string {
	out := make([]string, len(raw))
	for i, lang := range raw {
		if canonical, ok := languageAliases[strings.ToLower(lang)]; ok {
			out[i] = canonical
		} else {
			out[i] = lang
		}
	}
	return out
}

func toStoreFilter(f queryfilter.Filters) store.SymbolFilter {
	return store.SymbolFilter{
		Languages:        canonicalLanguages(f.Languages),
		Kinds:            f.Kinds,
		PathGlobs:        f.Paths,
		ExcludeLanguages: canonicalLanguages(f.ExcludeLanguages),
		ExcludeKinds:     f.ExcludeKinds,
		ExcludePathGlobs: f.ExcludePaths,
	}
}

func (r *Router) searchSymbol(name string, filter store.SymbolFilter, limit int) ([]SearchResult, error) {
	matches, err := r.store.FindSymbolsByName(name, filter)
	if err != nil {
		return nil, clerr.Wrap(clerr.QueryFailed, err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		score := 0.9
		if m.Name == name {
			score = 1.0
		}
		results = append(results, SearchResult{
			Kind:      m.Kind,
			Name:      m.Name,
			Path:      m.Path,
			StartLine: m.StartLine,
			EndLine:   m.EndLine,
			Score:     score,
		})
	}

	orderSymbolResults(results, name)
	return truncate(results, limit), nil
}

// orderSymbolResults sorts by exact-case match first, then kind
// priority, then path ascending.
func orderSymbolResults(results []SearchResult, exactName string) {
	sort.SliceStable(results, func(i, j int) bool {
		ei, ej := results[i].Name == exactName, results[j].Name == exactName
		if ei != ej {
			return ei
		}
		pi, pj := store.KindPriority(results[i].Kind), store.KindPriority(results[j].Kind)
		if pi != pj {
			return pi < pj
		}
		return results[i].Path < results[j].Path
	})
}

func (r *Router) searchNatural(terms string, filter store.SymbolFilter, limit int) ([]SearchResult, error) {
	// Over-fetch: dedup below can collapse a file chunk and a symbol
	// chunk at the same location into one result, so fetching exactly
	// limit rows could come up short of limit distinct locations.
	matches, err := r.store.SearchChunks(terms, filter, limit*2)
	if err != nil {
		return nil, clerr.Wrap(clerr.QueryFailed, err)
	}

	// A file chunk and a symbol chunk can both match at the same
	// location; keep only the best-ranked row per (path, start_line).
	seen := make(map[string]bool, len(matches))
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		res := SearchResult{
			Kind:      store.SymbolKind(m.SymbolKind),
			Name:      m.SymbolName,
			Path:      m.Path,
			StartLine: m.StartLine,
			EndLine:   m.EndLine,
			Score:     normalizeBM25(m.BM25),
			Snippet:   extractSnippet(m.Text, terms),
		}
		key := fusionKey(res)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, res)
	}
	return truncate(results, limit), nil
}

func (r *Router) searchHybrid(terms string, filter store.SymbolFilter, limit int) ([]SearchResult, error) {
	symbolResults, err := r.searchSymbol(terms, filter, limit)
	if err != nil {
		return nil, err
	}
	naturalResults, err := r.searchNatural(terms, filter, limit)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]SearchResult, len(symbolResults)+len(naturalResults))
	order := make([]string, 0, len(symbolResults)+len(naturalResults))
	add := func(res SearchResult) {
		key := fusionKey(res)
		if existing, ok := merged[key]; !ok {
			merged[key] = res
			order = append(order, key)
		} else if res.Score > existing.Score {
			merged[key] = res
		}
	}
	for _, res := range symbolResults {
		add(res)
	}
	for _, res := range naturalResults {
		add(res)
	}

	out := make([]SearchResult, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return truncate(out, limit), nil
}

func fusionKey(r SearchResult) string {
	return r.Path + "\x00" + strconv.Itoa(r.StartLine)
}

// normalizeBM25 converts SQLite's raw bm25() score (0 or negative, more
// negative meaning a stronger match) into [0,1], where a smaller raw
// score yields a higher normalized score.
func normalizeBM25(bm25 float64) float64 {
	magnitude := -bm25
	if magnitude < 0 {
		magnitude = 0
	}
	return magnitude / (1 + magnitude)
}

// extractSnippet returns the first line of text containing any
// whitespace-separated term from terms, case-insensitive, or "" if none
// matches.
func extractSnippet(text, terms string) string {
	tokens := strings.Fields(strings.ToLower(strings.ReplaceAll(terms, `"`, " ")))
	if len(tokens) == 0 {
		return ""
	}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, tok := range tokens {
			if tok != "" && strings.Contains(lower, tok) {
				return strings.TrimSpace(line)
			}
		}
	}
	return ""
}

func truncate(results []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
