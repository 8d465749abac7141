package ports

import (
	"context"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
)

// CommentCursor marks the last comment of the previous page. Comments are
// ordered by (created_at, id), so BeforeID breaks ties on the same instant.
// A zero Before starts from the latest comment.
type CommentCursor struct {
	Before   time.Time
	BeforeID string
}

// CommentRepository persists comments in their own collection.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	// ListByPost pages comments newest first, strictly after cursor.
	ListByPost(ctx context.Context, postID string, cursor CommentCursor, limit int) ([]*domain.Comment, error)
	// Recent returns up to perPost latest comments for each post, newest first.
	Recent(ctx context.Context, postIDs []string, perPost int) (map[string][]*domain.Comment, error)
	// Delete removes the comment and reports whether this call removed it.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByPosts(ctx context.Context, postIDs []string) error
	// DeleteByAuthor removes an author's comments and returns how many were
	// removed from each post.
	DeleteByAuthor(ctx context.Context, authorID string) (map[string]int64, error)
}
