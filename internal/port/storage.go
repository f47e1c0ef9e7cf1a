package port

import (
	"context"
	"io"
	"time"
)

// PutInput encapsulates the parameters needed to store a preview object.
type PutInput struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// ObjectStorage abstracts the bucket that holds screenshot previews.
// Implementations are bound to a single bucket.
type ObjectStorage interface {
	Put(ctx context.Context, input PutInput) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
