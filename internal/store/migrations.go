package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/codelens-dev/codelens/internal/clerr"
)

// migration is one append-only, forward-only schema step.
type migration struct {
	name string
	up   func(*sql.Tx) error
}

// migrations is applied in order starting from version 0. Never modify an
// existing entry; only append.
var migrations = []migration{
	{name: "initial_schema", up: migrateV0},
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TEXT NOT NULL
);
`

func migrateV0(tx *sql.Tx) error {
	schema := `
CREATE TABLE files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	hash TEXT NOT NULL,
	size INTEGER NOT NULL,
	language TEXT NOT NULL DEFAULT '',
	indexed_at TEXT NOT NULL
);
CREATE INDEX idx_files_language ON files(language);

CREATE TABLE symbols (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL DEFAULT 0,
	column INTEGER NOT NULL DEFAULT 0,
	metadata TEXT NOT NULL DEFAULT '{}',
	UNIQUE (file_id, name, start_line, kind)
);
CREATE INDEX idx_symbols_file_id ON symbols(file_id);
CREATE INDEX idx_symbols_name ON symbols(name);
CREATE INDEX idx_symbols_lookup ON symbols(name, kind, file_id, start_line, end_line);

CREATE TABLE chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	symbol_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
	type TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	text TEXT NOT NULL
);
CREATE INDEX idx_chunks_file_id ON chunks(file_id);
CREATE INDEX idx_chunks_symbol_id ON chunks(symbol_id);

CREATE VIRTUAL TABLE chunks_fts USING fts5(
	text,
	content='chunks',
	content_rowid='id',
	tokenize='unicode61'
);

CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
END;

CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;

CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.id, old.text);
	INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
END;
`
	_, err := tx.Exec(schema)
	return err
}

// migrate ensures schema_migrations exists and applies any pending
// migrations in order, failing fast and refusing to open on a gap in the
// applied set (downgrade / unknown-future-version protection).
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaMigrationsTable); err != nil {
		return clerr.Wrap(clerr.SchemaError, fmt.Errorf("create schema_migrations: %w", err))
	}

	applied := map[int]bool{}
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return clerr.Wrap(clerr.SchemaError, fmt.Errorf("read schema_migrations: %w", err))
	}
	maxApplied := -1
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return clerr.Wrap(clerr.SchemaError, fmt.Errorf("scan schema_migrations: %w", err))
		}
		applied[v] = true
		if v > maxApplied {
			maxApplied = v
		}
	}
	rows.Close()

	for v := 0; v <= maxApplied; v++ {
		if !applied[v] {
			return clerr.New(clerr.SchemaError,
				fmt.Sprintf("schema_migrations is missing version %d; downgrade is unsupported", v), nil)
		}
	}
	if maxApplied >= len(migrations) {
		return clerr.New(clerr.SchemaError,
			fmt.Sprintf("schema_migrations has version %d, newer than this build knows; downgrade is unsupported", maxApplied), nil)
	}

	for v := maxApplied + 1; v < len(migrations); v++ {
		if err := applyMigration(db, v); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return clerr.Wrap(clerr.SchemaError, err)
	}
	defer tx.Rollback()

	m := migrations[version]
	if err := m.up(tx); err != nil {
		return clerr.Wrap(clerr.SchemaError, fmt.Errorf("migration %d (%s): %w", version, m.name, err))
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		version, m.name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return clerr.Wrap(clerr.SchemaError, fmt.Errorf("record migration %d: %w", version, err))
	}

	if err := tx.Commit(); err != nil {
		return clerr.Wrap(clerr.SchemaError, err)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, or -1 if none.
func SchemaVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return -1, clerr.Wrap(clerr.SchemaError, err)
	}
	if !version.Valid {
		return -1, nil
	}
	return int(version.Int64), nil
}
