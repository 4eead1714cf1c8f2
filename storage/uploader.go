package storage

import (
	"context"
	"io"
)

// UploadResult identifies a stored object. Location is the full public
// URL when the bucket exposes one.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores club and team logo images under caller-chosen
// keys. Uploading to an existing key overwrites it, which is how a logo
// gets replaced.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL builds the serving URL for a key without touching
	// the backing store.
	GetPublicURL(key string) string
}
