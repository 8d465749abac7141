package ports

import (
	"context"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
)

// PostRepository persists posts. Missing posts yield domain.ErrPostNotFound.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// FindByAuthors returns posts by any of the authors, newest first, with
	// equal timestamps kept in insertion order.
	FindByAuthors(ctx context.Context, authorIDs []string, limit int) ([]*domain.Post, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	UpdateContent(ctx context.Context, id string, content domain.PostContent, now time.Time) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	// ToggleLike atomically adds accountID to the like set, or removes it when
	// already present. It returns the post after the change and whether the
	// account now likes it.
	ToggleLike(ctx context.Context, postID, accountID string) (*domain.Post, bool, error)
	IncrementComments(ctx context.Context, postID string, delta int64) error
	// PullLikes removes accountID from every like set.
	PullLikes(ctx context.Context, accountID string) error
	// DeleteByAuthor removes all posts of an author and returns their IDs.
	DeleteByAuthor(ctx context.Context, authorID string) ([]string, error)
}
