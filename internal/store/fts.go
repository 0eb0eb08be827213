package store

import (
	"fmt"
	"strings"
)

// ftsSchemaVersion is tracked in PRAGMA user_version. Version 2 adds the
// scripts_fts index over narration and story titles.
const ftsSchemaVersion = 2

const ftsSchema = `
	CREATE VIRTUAL TABLE IF NOT EXISTS scripts_fts USING fts5(
		narration,
		stories,
		content='scripts',
		content_rowid='id',
		tokenize='porter unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS scripts_ai AFTER INSERT ON scripts BEGIN
		INSERT INTO scripts_fts(rowid, narration, stories)
		VALUES (new.id, new.narration, new.stories);
	END;

	CREATE TRIGGER IF NOT EXISTS scripts_ad AFTER DELETE ON scripts BEGIN
		INSERT INTO scripts_fts(scripts_fts, rowid, narration, stories)
		VALUES ('delete', old.id, old.narration, old.stories);
	END;

	CREATE TRIGGER IF NOT EXISTS scripts_au AFTER UPDATE ON scripts BEGIN
		INSERT INTO scripts_fts(scripts_fts, rowid, narration, stories)
		VALUES ('delete', old.id, old.narration, old.stories);
		INSERT INTO scripts_fts(rowid, narration, stories)
		VALUES (new.id, new.narration, new.stories);
	END;
`

// migrateFTS creates the full-text index and backfills it from any rows
// that predate it. Idempotent: guarded by PRAGMA user_version.
func (s *Store) migrateFTS() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= ftsSchemaVersion {
		return nil
	}

	if _, err := s.db.Exec(ftsSchema); err != nil {
		return fmt.Errorf("create scripts_fts: %w", err)
	}

	// Index rows inserted before the triggers existed
	if _, err := s.db.Exec("INSERT INTO scripts_fts(scripts_fts) VALUES('rebuild')"); err != nil {
		return fmt.Errorf("rebuild scripts_fts: %w", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", ftsSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// SearchScripts runs a full-text query over narration text and story
// titles, best match first.
// Thread-safe: acquires read lock.
func (s *Store) SearchScripts(query string, limit int) ([]StoredScript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := s.queryScripts(searchQuery, query, limit)
	if err != nil {
		// Punctuation like "C++" or "a:b" is FTS5 query syntax; retry
		// the raw text as a quoted phrase
		quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
		results, err = s.queryScripts(searchQuery, quoted, limit)
	}
	return results, err
}

const searchQuery = `
	SELECT s.id, s.brand, s.language, s.country, s.provider, s.model,
		s.generated_at, s.word_count, s.degraded, s.attempt_count,
		s.sections, s.stories
	FROM scripts_fts f
	JOIN scripts s ON s.id = f.rowid
	WHERE scripts_fts MATCH ?
	ORDER BY f.rank
	LIMIT ?
`

// PruneScripts deletes all but the newest keep scripts and returns the
// number removed. The delete trigger keeps the full-text index in sync.
// Thread-safe: acquires write lock.
func (s *Store) PruneScripts(keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}

	result, err := s.db.Exec(`
		DELETE FROM scripts WHERE id NOT IN (
			SELECT id FROM scripts ORDER BY generated_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
