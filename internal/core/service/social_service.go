package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

type socialService struct {
	accounts ports.AccountRepository
	follows  ports.FollowRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewSocialService returns a SocialService over the follow edge store.
func NewSocialService(
	accounts ports.AccountRepository,
	follows ports.FollowRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) ports.SocialService {
	return &socialService{
		accounts: accounts,
		follows:  follows,
		notifier: notifier,
		log:      log,
	}
}

// ToggleFollow flips the single (actor, target) edge. Both directions of the
// relationship are read from that edge, so they cannot drift apart.
func (s *socialService) ToggleFollow(ctx context.Context, actorID, targetID string) (domain.FollowState, error) {
	if actorID == targetID {
		return "", fmt.Errorf("toggle follow: %w: cannot follow yourself", domain.ErrInvalidOperation)
	}
	for _, id := range []string{actorID, targetID} {
		if _, err := s.accounts.FindByID(ctx, id); err != nil {
			return "", fmt.Errorf("toggle follow: %w", err)
		}
	}

	removed, err := s.follows.Remove(ctx, actorID, targetID)
	if err != nil {
		return "", fmt.Errorf("toggle follow: %w", err)
	}
	if removed {
		s.log.Debug().Str("follower", actorID).Str("following", targetID).Msg("unfollowed")
		return domain.FollowStateUnfollowed, nil
	}

	now := time.Now().UTC()
	if err := s.follows.Add(ctx, domain.Follow{FollowerID: actorID, FollowingID: targetID, CreatedAt: now}); err != nil {
		return "", fmt.Errorf("toggle follow: %w", err)
	}

	s.notifier.Notify(domain.Notification{
		RecipientID: targetID,
		ActorID:     actorID,
		Kind:        domain.NotifyFollow,
		CreatedAt:   now,
	})
	s.log.Debug().Str("follower", actorID).Str("following", targetID).Msg("followed")
	return domain.FollowStateFollowed, nil
}

func (s *socialService) Followers(ctx context.Context, accountID string) ([]domain.AccountSummary, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("followers: %w", err)
	}
	ids, err := s.follows.FollowerIDs(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("followers: %w", err)
	}
	return summaryList(ctx, s.accounts, ids)
}

func (s *socialService) Following(ctx context.Context, accountID string) ([]domain.AccountSummary, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("following: %w", err)
	}
	ids, err := s.follows.FollowingIDs(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("following: %w", err)
	}
	return summaryList(ctx, s.accounts, ids)
}
