package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codelens-dev/codelens/internal/clerr"
)

// FileByPath returns the stored File row for path, or (nil, nil) if absent.
func (s *Store) FileByPath(path string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, path, content, hash, size, language, indexed_at FROM files WHERE path = ?`, path)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, clerr.Wrap(clerr.StoreError, err)
	}
	return f, nil
}

func scanFile(row *sql.Row) (*File, error) {
	var f File
	var indexedAt string
	if err := row.Scan(&f.ID, &f.Path, &f.Content, &f.Hash, &f.Size, &f.Language, &indexedAt); err != nil {
		return nil, err
	}
	f.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	return &f, nil
}

// upsertFile writes (inserting or updating) the file row for path and
// returns its id. It does not touch symbols or chunks; IngestFile follows
// it with replaceSymbols/replaceChunks in the same transaction.
func (s *Store) upsertFile(tx *sql.Tx, path, content, hash, language string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.Exec(`
		INSERT INTO files (path, content, hash, size, language, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content = excluded.content,
			hash = excluded.hash,
			size = excluded.size,
			language = excluded.language,
			indexed_at = excluded.indexed_at
	`, path, content, hash, len(content), language, now)
	if err != nil {
		return 0, fmt.Errorf("upsert file %s: %w", path, err)
	}

	// last_insert_rowid() is not updated on the conflict-update path, so
	// the id is always resolved by path rather than via LastInsertId.
	var id int64
	row := tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve file id for %s: %w", path, err)
	}
	return id, nil
}

func replaceSymbols(tx *sql.Tx, fileID int64, symbols []Symbol) (map[int]int64, error) {
	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return nil, fmt.Errorf("delete symbols for file %d: %w", fileID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO symbols (file_id, name, kind, start_line, end_line, column, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	ids := make(map[int]int64, len(symbols))
	for i, sym := range symbols {
		meta, err := json.Marshal(sym.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal symbol metadata for %s: %w", sym.Name, err)
		}
		res, err := stmt.Exec(fileID, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine, sym.Column, string(meta))
		if err != nil {
			return nil, fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func replaceChunks(tx *sql.Tx, fileID int64, chunks []NewChunk, symbolIDs map[int]int64) error {
	if _, err := tx.Exec(`DELETE FROM chunks WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("delete chunks for file %d: %w", fileID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (file_id, symbol_id, type, start_line, end_line, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var symbolID sql.NullInt64
		if id, ok := symbolIDs[c.SymbolIndex]; ok {
			symbolID = sql.NullInt64{Int64: id, Valid: true}
		}
		if _, err := stmt.Exec(fileID, symbolID, string(c.Type), c.StartLine, c.EndLine, c.Text); err != nil {
			return fmt.Errorf("insert chunk (%d-%d): %w", c.StartLine, c.EndLine, err)
		}
	}
	return nil
}

// IngestFile atomically upserts a file row and replaces all of its symbols
// and chunks in a single transaction: readers never observe a partially
// updated file. Each chunk's SymbolIndex is resolved against the freshly
// inserted symbol ids.
func (s *Store) IngestFile(path, content, hash, language string, symbols []Symbol, chunks []NewChunk) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, clerr.Wrap(clerr.StoreError, err)
	}
	defer tx.Rollback()

	fileID, err := s.upsertFile(tx, path, content, hash, language)
	if err != nil {
		return 0, clerr.Wrap(clerr.StoreError, err)
	}

	symbolIDs, err := replaceSymbols(tx, fileID, symbols)
	if err != nil {
		return 0, clerr.Wrap(clerr.StoreError, err)
	}

	if err := replaceChunks(tx, fileID, chunks, symbolIDs); err != nil {
		return 0, clerr.Wrap(clerr.StoreError, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, clerr.Wrap(clerr.StoreError, err)
	}
	return fileID, nil
}

// DeleteFile removes a file row (and cascades to its symbols and chunks)
// by path.
func (s *Store) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return clerr.Wrap(clerr.StoreError, err)
	}
	return nil
}

// AllPaths returns every indexed file path, used by the walker to compute
// which stored paths were not revisited (removed files).
func (s *Store) AllPaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path FROM files`)
	if err != nil {
		return nil, clerr.Wrap(clerr.StoreError, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, clerr.Wrap(clerr.StoreError, err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Stats returns basic counts used by `codelens status`.
type Stats struct {
	Files   int
	Symbols int
	Chunks  int
}

// Stats returns row counts for files, symbols, and chunks.
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&st.Files); err != nil {
		return st, clerr.Wrap(clerr.StoreError, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&st.Symbols); err != nil {
		return st, clerr.Wrap(clerr.StoreError, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&st.Chunks); err != nil {
		return st, clerr.Wrap(clerr.StoreError, err)
	}
	return st, nil
}
