package duckdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/novacrypto/nova/internal/model"
)

// RecordSnapshot stores every row of snap in a single transaction.
func (s *Store) RecordSnapshot(snap model.Snapshot) error {
	if len(snap.Rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	id := uuid.NewString()
	fetchedAt := snap.FetchedAt.UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, seq, currency, fetched_at, asset_count) VALUES (?, ?, ?, ?, ?)`,
		id, int64(snap.Seq), snap.Currency, fetchedAt, len(snap.Rows)); err != nil {
		return fmt.Errorf("duckdb: snapshot insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO quotes
		(snapshot_id, asset_id, currency, price, market_cap, volume_24h, change_pct_24h, market_rank, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range snap.Rows {
		var change, rank any
		if r.ChangePct24h != nil {
			change = *r.ChangePct24h
		}
		if r.Rank != nil {
			rank = int32(*r.Rank)
		}
		if _, err := stmt.ExecContext(ctx,
			id, r.ID, snap.Currency, r.Price, r.MarketCap, r.Volume24h, change, rank, fetchedAt,
		); err != nil {
			return fmt.Errorf("duckdb: quote insert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// PriceHistory returns recorded prices of one asset since the given time,
// oldest first.
func (s *Store) PriceHistory(id, currency string, since time.Time) ([]model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT fetched_at, price
		FROM quotes
		WHERE asset_id = ? AND currency = ? AND fetched_at >= ?
		ORDER BY fetched_at`, id, currency, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("duckdb: price history %s: %w", id, err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.Time, &p.Price); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SnapshotCount returns the number of recorded snapshots.
func (s *Store) SnapshotCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// DeleteBefore removes history recorded before cutoff and returns the
// number of deleted quote rows.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM quotes WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete quotes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("duckdb: delete snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
