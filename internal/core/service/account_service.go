package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

const (
	searchLimit   = 10
	maxNameLength = 80
	maxBioLength  = 280
)

// AvatarProcessor turns an uploaded image into the stored avatar encoding.
type AvatarProcessor interface {
	Process(r io.Reader) ([]byte, error)
	ContentType() string
	Extension() string
}

// AccountRepositories groups the stores an account touches, used for cascades.
type AccountRepositories struct {
	Accounts      ports.AccountRepository
	Follows       ports.FollowRepository
	Posts         ports.PostRepository
	Comments      ports.CommentRepository
	Messages      ports.MessageRepository
	Notifications ports.NotificationRepository
}

type accountService struct {
	repos   AccountRepositories
	storage ports.MediaStorage
	avatars AvatarProcessor
	log     zerolog.Logger
}

// NewAccountService returns an AccountService implementation.
func NewAccountService(repos AccountRepositories, storage ports.MediaStorage, avatars AvatarProcessor, log zerolog.Logger) ports.AccountService {
	return &accountService{repos: repos, storage: storage, avatars: avatars, log: log}
}

// Profile loads an account with its graph and post counters as seen by viewerID.
func (s *accountService) Profile(ctx context.Context, viewerID, accountID string) (*domain.Profile, error) {
	account, err := s.repos.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	profile := &domain.Profile{
		Account:   account.Summary(),
		Bio:       account.Bio,
		CreatedAt: account.CreatedAt,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repos.Follows.CountFollowers(gctx, accountID)
		profile.Followers = n
		return err
	})
	g.Go(func() error {
		n, err := s.repos.Follows.CountFollowing(gctx, accountID)
		profile.Following = n
		return err
	})
	g.Go(func() error {
		n, err := s.repos.Posts.CountByAuthor(gctx, accountID)
		profile.Posts = n
		return err
	})
	if viewerID != "" && viewerID != accountID {
		g.Go(func() error {
			ok, err := s.repos.Follows.Exists(gctx, viewerID, accountID)
			profile.IsFollowing = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return profile, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, actorID string, update domain.ProfileUpdate) (*domain.Account, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "is required")
		}
		if len(name) > maxNameLength {
			return nil, domain.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
		}
		update.Name = &name
	}
	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		if len(bio) > maxBioLength {
			return nil, domain.NewValidationError("bio", fmt.Sprintf("must be at most %d characters", maxBioLength))
		}
		update.Bio = &bio
	}
	if update.Avatar != nil {
		avatar := strings.TrimSpace(*update.Avatar)
		update.Avatar = &avatar
	}

	if update.Empty() {
		account, err := s.repos.Accounts.FindByID(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		return account, nil
	}

	account, err := s.repos.Accounts.UpdateProfile(ctx, actorID, update, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return account, nil
}

func (s *accountService) UploadAvatar(ctx context.Context, actorID string, image io.Reader) (*domain.Account, error) {
	if _, err := s.repos.Accounts.FindByID(ctx, actorID); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	encoded, err := s.avatars.Process(image)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", domain.NewValidationError("file", "must be a decodable image"))
	}

	key := fmt.Sprintf("avatars/%s/%s%s", actorID, uuid.NewString(), s.avatars.Extension())
	if err := s.storage.Write(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), s.avatars.ContentType()); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	url, err := s.storage.PublicURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	account, err := s.repos.Accounts.UpdateProfile(ctx, actorID, domain.ProfileUpdate{Avatar: &url}, time.Now().UTC())
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned avatar")
		}
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	return account, nil
}

func (s *accountService) Search(ctx context.Context, query string) ([]domain.AccountSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "is required")
	}

	accounts, err := s.repos.Accounts.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	out := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Summary())
	}
	return out, nil
}

// Delete removes the account last, so a failed cascade can be retried.
func (s *accountService) Delete(ctx context.Context, actorID string) error {
	if _, err := s.repos.Accounts.FindByID(ctx, actorID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	postIDs, err := s.repos.Posts.DeleteByAuthor(ctx, actorID)
	if err != nil {
		return fmt.Errorf("delete account: posts: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.repos.Comments.DeleteByPosts(gctx, postIDs); err != nil {
			return fmt.Errorf("comments on own posts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		removed, err := s.repos.Comments.DeleteByAuthor(gctx, actorID)
		if err != nil {
			return fmt.Errorf("own comments: %w", err)
		}
		for postID, n := range removed {
			err := s.repos.Posts.IncrementComments(gctx, postID, -n)
			if err != nil && !errors.Is(err, domain.ErrPostNotFound) {
				return fmt.Errorf("comment counters: %w", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.repos.Posts.PullLikes(gctx, actorID); err != nil {
			return fmt.Errorf("likes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.repos.Follows.DeleteByAccount(gctx, actorID); err != nil {
			return fmt.Errorf("follows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.repos.Messages.DeleteByAccount(gctx, actorID); err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.repos.Notifications.DeleteByAccount(gctx, actorID); err != nil {
			return fmt.Errorf("notifications: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.repos.Accounts.Delete(ctx, actorID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.log.Info().Str("account_id", actorID).Int("posts", len(postIDs)).Msg("account deleted")
	return nil
}
