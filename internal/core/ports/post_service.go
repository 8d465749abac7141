package ports

import (
	"context"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
)

// ListCommentsInput pages the comments of a post.
type ListCommentsInput struct {
	PostID   string
	Before   time.Time
	BeforeID string
	Limit    int
}

// PostService covers posts, the feed and interactions.
type PostService interface {
	Create(ctx context.Context, actorID string, content domain.PostContent) (*domain.PostView, error)
	Get(ctx context.Context, actorID, postID string) (*domain.PostView, error)
	Update(ctx context.Context, actorID, postID string, update domain.PostUpdate) (*domain.PostView, error)
	Delete(ctx context.Context, actorID, postID string) error
	Feed(ctx context.Context, actorID string, limit int) ([]domain.PostView, error)
	ByAuthor(ctx context.Context, actorID, authorID string, limit int) ([]domain.PostView, error)
	ToggleLike(ctx context.Context, actorID, postID string) (*domain.LikeResult, error)
	AddComment(ctx context.Context, actorID, postID, text string) (*domain.CommentView, error)
	ListComments(ctx context.Context, in ListCommentsInput) ([]domain.CommentView, error)
	DeleteComment(ctx context.Context, actorID, postID, commentID string) error
}
