package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	"github.com/codelens-dev/codelens/internal/clerr"
)

// Store is the single embedded database backing the index. Writes are
// serialized through a single *sql.DB connection (SetMaxOpenConns(1));
// WAL mode allows concurrent readers from other processes.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open opens (creating if absent) the database at path, applies pending
// migrations, and acquires an advisory single-writer lock alongside it.
// An empty path opens an in-memory database for tests.
func Open(path string, wal bool) (*Store, error) {
	var dsn string
	var fl *flock.Flock

	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, clerr.Wrap(clerr.IoError, fmt.Errorf("create store directory %s: %w", dir, err))
		}
		fl = flock.New(path + ".lock")
		locked, err := fl.TryLock()
		if err != nil {
			return nil, clerr.Wrap(clerr.StoreError, fmt.Errorf("acquire store lock: %w", err))
		}
		if !locked {
			return nil, clerr.New(clerr.StoreError, "store is locked by another process", nil).WithPath(path)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		if fl != nil {
			fl.Unlock()
		}
		return nil, clerr.Wrap(clerr.StoreError, fmt.Errorf("open database: %w", err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// foreign_keys is per-connection and defaults off in the driver; the
	// single pinned connection makes one Exec sufficient. Without it the
	// ON DELETE CASCADE / SET NULL clauses in the schema never fire.
	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if wal {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			if fl != nil {
				fl.Unlock()
			}
			return nil, clerr.Wrap(clerr.StoreError, fmt.Errorf("set pragma %q: %w", p, err))
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		if fl != nil {
			fl.Unlock()
		}
		return nil, err
	}

	if _, err := db.Exec("ANALYZE"); err != nil {
		db.Close()
		if fl != nil {
			fl.Unlock()
		}
		return nil, clerr.Wrap(clerr.StoreError, err)
	}

	return &Store{db: db, path: path, lock: fl}, nil
}

// Close checkpoints the WAL and releases the store's connection and lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := s.db.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	if err != nil {
		return clerr.Wrap(clerr.StoreError, err)
	}
	return nil
}

// DB exposes the underlying connection for components (query router) that
// need to run read-only SQL directly.
func (s *Store) DB() *sql.DB {
	return s.db
}
