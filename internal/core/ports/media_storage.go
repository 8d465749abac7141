package ports

import (
	"context"
	"io"
)

// MediaStorage stores uploaded media objects by key.
type MediaStorage interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PublicURL returns the address clients use to fetch the object.
	PublicURL(ctx context.Context, key string) (string, error)
}
