package ports

import (
	"context"
	"io"
)

// UploadInput is a media file received from a client.
type UploadInput struct {
	OwnerID     string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult locates a stored media object.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type MediaService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
}
