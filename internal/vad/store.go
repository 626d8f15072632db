package vad

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists analyses in SQLite so segmentations survive restarts
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the cache database at dbPath
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS vad_analyses (
	source_id    TEXT NOT NULL,
	preset       TEXT NOT NULL,
	payload      TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	PRIMARY KEY (source_id, preset)
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return nil
}

// Load returns the stored analysis for (sourceID, preset), or nil when absent
func (s *Store) Load(ctx context.Context, sourceID, presetName string) (*Analysis, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM vad_analyses WHERE source_id = ? AND preset = ?`,
		sourceID, presetName).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached analysis: %w", err)
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &analysis, nil
}

// Save upserts the analysis keyed by (source, preset)
func (s *Store) Save(ctx context.Context, analysis *Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vad_analyses (source_id, preset, payload, generated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (source_id, preset) DO UPDATE SET
		   payload = excluded.payload,
		   generated_at = excluded.generated_at`,
		analysis.SourceID, analysis.Preset, string(payload),
		analysis.GeneratedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// DeleteSource removes all stored analyses for a source across presets
func (s *Store) DeleteSource(ctx context.Context, sourceID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM vad_analyses WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("failed to delete analyses for %s: %w", sourceID, err)
	}
	return nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}
