// Package store provides SQLite persistence for generated scripts and
// pipeline runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mkowalski/newsreel/internal/script"
)

// Run outcomes.
const (
	RunOK     = "ok"     // a script was generated and saved
	RunEmpty  = "empty"  // nothing fresh to narrate this cycle
	RunFailed = "failed" // generation exhausted every provider
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// StoredScript is a script record with its database identity.
type StoredScript struct {
	ID int64
	script.Record
}

// RunRecord summarizes one pipeline cycle. ScriptID is zero when the run
// produced no script.
type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	Fetched    int
	Selected   int
	Duplicates int
	ScriptID   int64
	Status     string
	Error      string
}

// Stats aggregates the script history.
type Stats struct {
	Scripts       int
	Runs          int
	Failed        int
	Degraded      int
	AvgWordCount  float64
	LastGenerated time.Time // zero when no script exists yet
}

// Open creates a Store at the given database path, creating tables as
// needed. WAL mode is enabled for file-based databases.
func Open(dbPath string) (*Store, error) {
	// In-memory databases need shared cache so every pooled connection
	// sees the same database
	connStr := dbPath
	if dbPath == ":memory:" {
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

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	if err := s.migrateFTS(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate full-text index: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		brand TEXT NOT NULL,
		language TEXT,
		country TEXT,
		provider TEXT NOT NULL,
		model TEXT,
		generated_at DATETIME NOT NULL,
		word_count INTEGER NOT NULL,
		degraded INTEGER DEFAULT 0,
		attempt_count INTEGER DEFAULT 0,
		sections TEXT NOT NULL,
		stories TEXT,
		narration TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scripts_generated ON scripts(generated_at DESC);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		fetched INTEGER DEFAULT 0,
		selected INTEGER DEFAULT 0,
		duplicates INTEGER DEFAULT 0,
		script_id INTEGER,
		status TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveScript persists a finished script and returns its row id.
// Thread-safe: acquires write lock.
func (s *Store) SaveScript(rec script.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections, err := json.Marshal(rec.Sections)
	if err != nil {
		return 0, fmt.Errorf("marshal sections: %w", err)
	}
	stories, err := json.Marshal(rec.Stories)
	if err != nil {
		return 0, fmt.Errorf("marshal stories: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO scripts (
			brand, language, country, provider, model, generated_at,
			word_count, degraded, attempt_count, sections, stories, narration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Brand,
		rec.Language,
		rec.Country,
		rec.Provider,
		rec.Model,
		rec.GeneratedAt,
		rec.WordCount,
		boolToInt(rec.Degraded),
		rec.AttemptCount,
		string(sections),
		string(stories),
		rec.Text(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentScripts returns up to limit scripts, newest first.
// Thread-safe: acquires read lock.
func (s *Store) RecentScripts(limit int) ([]StoredScript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryScripts(`
		SELECT id, brand, language, country, provider, model, generated_at,
			word_count, degraded, attempt_count, sections, stories
		FROM scripts
		ORDER BY generated_at DESC
		LIMIT ?
	`, limit)
}

func (s *Store) queryScripts(query string, args ...any) ([]StoredScript, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredScript
	for rows.Next() {
		var (
			rec          StoredScript
			degradedInt  int
			sectionsJSON string
			storiesJSON  string
		)
		err := rows.Scan(
			&rec.ID,
			&rec.Brand,
			&rec.Language,
			&rec.Country,
			&rec.Provider,
			&rec.Model,
			&rec.GeneratedAt,
			&rec.WordCount,
			&degradedInt,
			&rec.AttemptCount,
			&sectionsJSON,
			&storiesJSON,
		)
		if err != nil {
			return nil, err
		}
		rec.Degraded = degradedInt != 0
		if err := json.Unmarshal([]byte(sectionsJSON), &rec.Sections); err != nil {
			return nil, fmt.Errorf("unmarshal sections for script %d: %w", rec.ID, err)
		}
		if storiesJSON != "" {
			if err := json.Unmarshal([]byte(storiesJSON), &rec.Stories); err != nil {
				return nil, fmt.Errorf("unmarshal stories for script %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveRun records one pipeline cycle and returns its row id.
// Thread-safe: acquires write lock.
func (s *Store) SaveRun(run RunRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scriptID any
	if run.ScriptID > 0 {
		scriptID = run.ScriptID
	}

	result, err := s.db.Exec(`
		INSERT INTO runs (started_at, fetched, selected, duplicates, script_id, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt,
		run.Fetched,
		run.Selected,
		run.Duplicates,
		scriptID,
		run.Status,
		run.Error,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentRuns returns up to limit runs, newest first.
// Thread-safe: acquires read lock.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, started_at, fetched, selected, duplicates, script_id, status, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			run      RunRecord
			scriptID sql.NullInt64
		)
		err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.Fetched,
			&run.Selected,
			&run.Duplicates,
			&scriptID,
			&run.Status,
			&run.Error,
		)
		if err != nil {
			return nil, err
		}
		if scriptID.Valid {
			run.ScriptID = scriptID.Int64
		}
		out = append(out, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats aggregates the stored history.
// Thread-safe: acquires read lock.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	var lastGenerated sql.NullTime

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(degraded), 0), COALESCE(AVG(word_count), 0), MAX(generated_at)
		FROM scripts
	`).Scan(&stats.Scripts, &stats.Degraded, &stats.AvgWordCount, &lastGenerated)
	if err != nil {
		return Stats{}, err
	}
	if lastGenerated.Valid {
		stats.LastGenerated = lastGenerated.Time
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM runs
	`, RunFailed).Scan(&stats.Runs, &stats.Failed)
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
