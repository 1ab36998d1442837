package domain

import (
	"context"
	"time"
)

// SnapshotStore is the persistence substrate for NBBO snapshots. A completed
// Append is visible to subsequent QueryRange calls; no stronger isolation is
// assumed.
type SnapshotStore interface {
	// Append persists one snapshot. Duplicate (symbol, as_of) rows are
	// silently skipped.
	Append(ctx context.Context, snap Snapshot) error

	// QueryRange returns snapshots for symbol with as_of in [from, to),
	// ordered ascending.
	QueryRange(ctx context.Context, symbol Symbol, from, to time.Time) ([]Snapshot, error)

	// QueryBefore returns all snapshots older than cutoff, ordered ascending.
	// Used by the archiver to export rows before deletion.
	QueryBefore(ctx context.Context, cutoff time.Time) ([]Snapshot, error)

	// DeleteBefore removes snapshots older than cutoff and reports how many
	// rows were deleted. Only the archiver calls this.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NbboCache holds the most recent NBBO summary and trade per symbol so the
// query surface has something to serve across restarts, before the first
// refresh cycle completes.
type NbboCache interface {
	SetSummary(ctx context.Context, n NbboSummary) error
	GetSummary(ctx context.Context, symbol Symbol) (NbboSummary, error)
	SetLatestTrade(ctx context.Context, symbol Symbol, t Trade) error
	GetLatestTrade(ctx context.Context, symbol Symbol) (Trade, error)
}
