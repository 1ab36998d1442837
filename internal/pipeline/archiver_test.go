package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/pipeline"
)

type agedStore struct {
	recordingStore
	aged    []domain.Snapshot
	deleted bool
}

func (s *agedStore) QueryBefore(ctx context.Context, cutoff time.Time) ([]domain.Snapshot, error) {
	return s.aged, nil
}

func (s *agedStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.deleted = true
	return int64(len(s.aged)), nil
}

type fakeBlob struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (b *fakeBlob) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.keys = append(b.keys, path)
	return nil
}

func agedSnapshot() domain.Snapshot {
	price := 100.0
	return domain.Snapshot{
		Symbol:       "HYPE",
		AsOf:         time.Now().UTC().AddDate(0, 0, -60),
		BestBidPrice: &price,
	}
}

func TestArchiver_RunOnce_ExportsThenDeletes(t *testing.T) {
	store := &agedStore{aged: []domain.Snapshot{agedSnapshot()}}
	blob := &fakeBlob{}
	a := pipeline.NewArchiver(store, blob, 30, time.Hour, slog.New(slog.DiscardHandler))

	if err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blob.keys) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(blob.keys))
	}
	if !strings.HasPrefix(blob.keys[0], "snapshots/") || !strings.HasSuffix(blob.keys[0], ".json") {
		t.Errorf("unexpected archive key %q", blob.keys[0])
	}
	if !store.deleted {
		t.Error("rows must be deleted after a successful export")
	}
}

func TestArchiver_RunOnce_ExportFailureKeepsRows(t *testing.T) {
	store := &agedStore{aged: []domain.Snapshot{agedSnapshot()}}
	blob := &fakeBlob{err: errors.New("s3 down")}
	a := pipeline.NewArchiver(store, blob, 30, time.Hour, slog.New(slog.DiscardHandler))

	if err := a.RunOnce(context.Background()); err == nil {
		t.Fatal("expected export failure to surface")
	}
	if store.deleted {
		t.Error("rows must not be deleted when the export failed")
	}
}

func TestArchiver_RunOnce_NothingToArchive(t *testing.T) {
	store := &agedStore{}
	blob := &fakeBlob{}
	a := pipeline.NewArchiver(store, blob, 30, time.Hour, slog.New(slog.DiscardHandler))

	if err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blob.keys) != 0 {
		t.Errorf("expected no uploads, got %v", blob.keys)
	}
}
