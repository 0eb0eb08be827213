package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteIndex is an Index backend on an embedded SQLite database. Every admit
// is durable on its own, so Persist is a no-op.
type SQLiteIndex struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations

	maxAge time.Duration
}

var _ Index = (*SQLiteIndex)(nil)

// NewSQLiteIndex opens (creating if needed) the seen table at dbPath.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func NewSQLiteIndex(dbPath string, maxAge time.Duration) (*SQLiteIndex, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS seen (
		fingerprint TEXT PRIMARY KEY,
		first_seen INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_seen_first_seen ON seen(first_seen);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteIndex{db: db, maxAge: maxAge}, nil
}

func (s *SQLiteIndex) IsDuplicate(ctx context.Context, fp Fingerprint, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := now.Add(-s.maxAge).Unix()
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM seen WHERE fingerprint = ? AND first_seen >= ?",
		string(fp), cutoff).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen: %w", err)
	}
	return true, nil
}

// Admit records fp via INSERT OR IGNORE: an existing row keeps its original
// first_seen, which is exactly the first-sighting expiry rule.
func (s *SQLiteIndex) Admit(ctx context.Context, fp Fingerprint, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO seen (fingerprint, first_seen) VALUES (?, ?)",
		string(fp), now.Unix())
	if err != nil {
		return fmt.Errorf("admit fingerprint: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.maxAge).Unix()
	res, err := s.db.ExecContext(ctx, "DELETE FROM seen WHERE first_seen < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteIndex) Persist(ctx context.Context) error { return nil }

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
