package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Archiver moves aged snapshot rows out of the database into S3 cold storage.
// Rows are exported before they are deleted; an export failure aborts the run
// and leaves the rows in place.
type Archiver struct {
	store         domain.SnapshotStore
	blob          domain.BlobWriter
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewArchiver creates an Archiver that runs every interval and retires rows
// older than retentionDays.
func NewArchiver(store domain.SnapshotStore, blob domain.BlobWriter, retentionDays int, interval time.Duration, logger *slog.Logger) *Archiver {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Archiver{
		store:         store,
		blob:          blob,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes archive passes on the configured interval until ctx is
// cancelled. Individual run failures are logged and retried next interval.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.Info("archiver started",
		slog.Int("retention_days", a.retentionDays),
		slog.Duration("interval", a.interval),
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single archive pass: export rows older than the
// retention cutoff as a JSON object to S3, then delete them.
func (a *Archiver) RunOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.retentionDays)

	rows, err := a.store.QueryBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiver: query aged snapshots: %w", err)
	}
	if len(rows) == 0 {
		a.logger.Debug("nothing to archive", slog.Time("cutoff", cutoff))
		return nil
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("archiver: encode snapshots: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/archive-%s.json",
		cutoff.Format("2006/01/02"),
		time.Now().UTC().Format("20060102T150405Z"),
	)
	if err := a.blob.Put(ctx, key, bytes.NewReader(payload), "application/json"); err != nil {
		return fmt.Errorf("archiver: upload %s: %w", key, err)
	}

	deleted, err := a.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiver: delete aged snapshots: %w", err)
	}

	a.logger.Info("archive run complete",
		slog.Time("cutoff", cutoff),
		slog.Int("exported", len(rows)),
		slog.Int64("deleted", deleted),
		slog.String("key", key),
	)
	return nil
}
