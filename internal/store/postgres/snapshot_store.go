package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const snapshotSelectCols = `symbol, as_of, best_bid_price, best_bid_size, best_ask_price, best_ask_size`

// Append inserts one snapshot row. Duplicate (symbol, as_of) rows are
// silently skipped via ON CONFLICT DO NOTHING, matching append-only
// semantics under tick retries.
func (s *SnapshotStore) Append(ctx context.Context, snap domain.Snapshot) error {
	const query = `
		INSERT INTO nbbo_snapshots (
			symbol, as_of,
			best_bid_price, best_bid_size,
			best_ask_price, best_ask_size
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, as_of) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		snap.Symbol, snap.AsOf,
		snap.BestBidPrice, snap.BestBidSize,
		snap.BestAskPrice, snap.BestAskSize,
	)
	if err != nil {
		return fmt.Errorf("postgres: append snapshot: %w", err)
	}
	return nil
}

// QueryRange returns snapshots for symbol with as_of in [from, to), ordered
// ascending.
func (s *SnapshotStore) QueryRange(ctx context.Context, symbol domain.Symbol, from, to time.Time) ([]domain.Snapshot, error) {
	const query = `
		SELECT ` + snapshotSelectCols + `
		FROM nbbo_snapshots
		WHERE symbol = $1 AND as_of >= $2 AND as_of < $3
		ORDER BY as_of ASC`

	rows, err := s.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: query snapshot range: %w", err)
	}
	defer rows.Close()

	return scanSnapshotRows(rows)
}

// QueryBefore returns all snapshots older than cutoff, ordered ascending.
func (s *SnapshotStore) QueryBefore(ctx context.Context, cutoff time.Time) ([]domain.Snapshot, error) {
	const query = `
		SELECT ` + snapshotSelectCols + `
		FROM nbbo_snapshots
		WHERE as_of < $1
		ORDER BY as_of ASC`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: query snapshots before %v: %w", cutoff, err)
	}
	defer rows.Close()

	return scanSnapshotRows(rows)
}

// DeleteBefore removes snapshots older than cutoff and reports the number of
// deleted rows.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM nbbo_snapshots WHERE as_of < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %v: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

func scanSnapshotRows(rows pgx.Rows) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		if err := rows.Scan(
			&s.Symbol, &s.AsOf,
			&s.BestBidPrice, &s.BestBidSize,
			&s.BestAskPrice, &s.BestAskSize,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
