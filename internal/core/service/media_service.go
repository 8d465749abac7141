package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

var allowedMediaTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type mediaService struct {
	storage  ports.MediaStorage
	maxBytes int64
}

// NewMediaService returns a MediaService storing post images under posts/<owner>/.
func NewMediaService(storage ports.MediaStorage, maxBytes int64) ports.MediaService {
	return &mediaService{storage: storage, maxBytes: maxBytes}
}

func (s *mediaService) Upload(ctx context.Context, in ports.UploadInput) (*ports.UploadResult, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(in.ContentType, ";", 2)[0]))
	ext, ok := allowedMediaTypes[contentType]
	if !ok {
		return nil, domain.NewValidationError("file", "must be a jpeg, png, gif or webp image")
	}
	if in.Size <= 0 {
		return nil, domain.NewValidationError("file", "must not be empty")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, domain.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes))
	}

	key := path.Join("posts", in.OwnerID, uuid.NewString()+ext)
	if err := s.storage.Write(ctx, key, in.Body, in.Size, contentType); err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	url, err := s.storage.PublicURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	return &ports.UploadResult{Key: key, URL: url}, nil
}
