package interfaces

import (
	"context"
	"time"
)

// BlobService - S3-compatible object store semantics. Keys are
// forward-slash-delimited paths; content type is advisory.
type BlobService interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
