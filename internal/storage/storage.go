package storage

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned when a key is absent from the bucket.
var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// PutObject streams body into the bucket under objectKey.
	PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error

	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
