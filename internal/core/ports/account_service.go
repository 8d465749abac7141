package ports

import (
	"context"
	"io"

	"github.com/connectify/social-api/internal/core/domain"
)

// AccountService covers profile reads and owner-only profile changes.
type AccountService interface {
	Profile(ctx context.Context, viewerID, accountID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, actorID string, update domain.ProfileUpdate) (*domain.Account, error)
	// UploadAvatar normalises the image to a square JPEG and stores it as the avatar.
	UploadAvatar(ctx context.Context, actorID string, image io.Reader) (*domain.Account, error)
	Search(ctx context.Context, query string) ([]domain.AccountSummary, error)
	// Delete removes the account and everything it owns or references.
	Delete(ctx context.Context, actorID string) error
}

// SocialService manages the follow graph.
type SocialService interface {
	// ToggleFollow follows target when actor does not follow it yet, and
	// unfollows it otherwise.
	ToggleFollow(ctx context.Context, actorID, targetID string) (domain.FollowState, error)
	Followers(ctx context.Context, accountID string) ([]domain.AccountSummary, error)
	Following(ctx context.Context, accountID string) ([]domain.AccountSummary, error)
}
