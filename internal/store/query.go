package store

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/codelens-dev/codelens/internal/clerr"
)

// SymbolMatch is a symbols-table row joined with its owning file, used by
// both the symbol-intent query path and `def`.
type SymbolMatch struct {
	Symbol
	Path     string
	Language string
}

// SymbolFilter narrows FindSymbolsByName and SearchChunks by the query
// DSL's pushed-down predicates, positive and negated.
type SymbolFilter struct {
	Languages []string
	Kinds     []string
	PathGlobs []string

	ExcludeLanguages []string
	ExcludeKinds     []string
	ExcludePathGlobs []string
}

// appendExcludePredicates writes the AND-NOT exclusion clauses shared by
// FindSymbolsByName and SearchChunks onto query/args.
func appendExcludePredicates(query *strings.Builder, args []any, filter SymbolFilter, kindColumn string) []any {
	if len(filter.ExcludeLanguages) > 0 {
		query.WriteString(" AND f.language NOT IN (" + placeholders(len(filter.ExcludeLanguages)) + ")")
		for _, l := range filter.ExcludeLanguages {
			args = append(args, l)
		}
	}
	if kindColumn != "" && len(filter.ExcludeKinds) > 0 {
		query.WriteString(" AND " + kindColumn + " NOT IN (" + placeholders(len(filter.ExcludeKinds)) + ")")
		for _, k := range filter.ExcludeKinds {
			args = append(args, k)
		}
	}
	for _, g := range filter.ExcludePathGlobs {
		query.WriteString(" AND f.path NOT GLOB ?")
		args = append(args, g)
	}
	return args
}

// FindSymbolsByName returns every symbol row named name (case-insensitive
// match; callers distinguish exact case via Symbol.Name), joined to its
// file, honoring filter. Results are unordered; the router applies the
// kind-priority/path ordering.
func (s *Store) FindSymbolsByName(name string, filter SymbolFilter) ([]SymbolMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.Builder{}
	query.WriteString(`
		SELECT s.id, s.file_id, s.name, s.kind, s.start_line, s.end_line, s.column, s.metadata,
		       f.path, f.language
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE s.name = ? COLLATE NOCASE
	`)
	args := []any{name}

	if len(filter.Languages) > 0 {
		query.WriteString(" AND f.language IN (" + placeholders(len(filter.Languages)) + ")")
		for _, l := range filter.Languages {
			args = append(args, l)
		}
	}
	if len(filter.Kinds) > 0 {
		query.WriteString(" AND s.kind IN (" + placeholders(len(filter.Kinds)) + ")")
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}
	if len(filter.PathGlobs) > 0 {
		clauses := make([]string, len(filter.PathGlobs))
		for i, g := range filter.PathGlobs {
			clauses[i] = "f.path GLOB ?"
			args = append(args, g)
		}
		query.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}
	args = appendExcludePredicates(&query, args, filter, "s.kind")

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, clerr.Wrap(clerr.QueryFailed, err)
	}
	defer rows.Close()

	var matches []SymbolMatch
	for rows.Next() {
		var m SymbolMatch
		var metadata string
		if err := rows.Scan(&m.ID, &m.FileID, &m.Name, &m.Kind, &m.StartLine, &m.EndLine, &m.Column, &metadata, &m.Path, &m.Language); err != nil {
			return nil, clerr.Wrap(clerr.QueryFailed, err)
		}
		if metadata != "" {
			_ = json.Unmarshal([]byte(metadata), &m.Metadata)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ChunkMatch is an FTS hit joined back to its file and, when present, its
// symbol.
type ChunkMatch struct {
	Chunk
	Path       string
	Language   string
	SymbolName string
	SymbolKind string
	BM25       float64
}

// SearchChunks runs an FTS5 MATCH query over chunk text, returning rows
// with SQLite's raw bm25() score (more negative = better match; the
// router normalizes it into [0,1]).
func (s *Store) SearchChunks(matchQuery string, filter SymbolFilter, limit int) ([]ChunkMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(matchQuery) == "" {
		return nil, nil
	}

	query := strings.Builder{}
	query.WriteString(`
		SELECT c.id, c.file_id, c.symbol_id, c.type, c.start_line, c.end_line, c.text,
		       f.path, f.language, COALESCE(sy.name, ''), COALESCE(sy.kind, ''),
		       bm25(chunks_fts)
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN files f ON f.id = c.file_id
		LEFT JOIN symbols sy ON sy.id = c.symbol_id
		WHERE chunks_fts MATCH ?
	`)
	args := []any{matchQuery}

	if len(filter.Languages) > 0 {
		query.WriteString(" AND f.language IN (" + placeholders(len(filter.Languages)) + ")")
		for _, l := range filter.Languages {
			args = append(args, l)
		}
	}
	if len(filter.Kinds) > 0 {
		query.WriteString(" AND COALESCE(sy.kind, '') IN (" + placeholders(len(filter.Kinds)) + ")")
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}
	if len(filter.PathGlobs) > 0 {
		clauses := make([]string, len(filter.PathGlobs))
		for i, g := range filter.PathGlobs {
			clauses[i] = "f.path GLOB ?"
			args = append(args, g)
		}
		query.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}
	args = appendExcludePredicates(&query, args, filter, "COALESCE(sy.kind, '')")

	query.WriteString(" ORDER BY bm25(chunks_fts) LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, clerr.Wrap(clerr.QueryFailed, err)
	}
	defer rows.Close()

	var matches []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		var symbolID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.FileID, &symbolID, &m.Type, &m.StartLine, &m.EndLine, &m.Text,
			&m.Path, &m.Language, &m.SymbolName, &m.SymbolKind, &m.BM25); err != nil {
			return nil, clerr.Wrap(clerr.QueryFailed, err)
		}
		if symbolID.Valid {
			m.SymbolID = symbolID.Int64
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ",")
}
