package ports

import (
	"context"

	"github.com/connectify/social-api/internal/core/domain"
)

// FollowRepository stores follow edges. The (follower, following) pair is
// unique, so followers and following are two views over the same records.
type FollowRepository interface {
	// Add inserts the edge. Adding an edge that already exists is not an error.
	Add(ctx context.Context, follow domain.Follow) error
	// Remove deletes the edge and reports whether one existed.
	Remove(ctx context.Context, followerID, followingID string) (bool, error)
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
	FollowerIDs(ctx context.Context, followingID string) ([]string, error)
	CountFollowers(ctx context.Context, accountID string) (int64, error)
	CountFollowing(ctx context.Context, accountID string) (int64, error)
	// DeleteByAccount removes every edge touching the account, in both directions.
	DeleteByAccount(ctx context.Context, accountID string) error
}
