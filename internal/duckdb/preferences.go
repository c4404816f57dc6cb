package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT pref_value FROM preferences WHERE pref_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("duckdb: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (pref_key, pref_value, updated_at)
		VALUES (?, ?, current_timestamp)
		ON CONFLICT (pref_key) DO UPDATE SET
			pref_value = excluded.pref_value,
			updated_at = excluded.updated_at`, key, value)
	if err != nil {
		return fmt.Errorf("duckdb: set %s: %w", key, err)
	}
	return nil
}
