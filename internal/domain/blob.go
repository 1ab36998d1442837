package domain

import (
	"context"
	"io"
)

// BlobWriter uploads objects to cold storage. Implemented by the S3 blob
// package; consumed by the snapshot archiver.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
