package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

const notificationListLimit = 50

type notificationService struct {
	accounts      ports.AccountRepository
	notifications ports.NotificationRepository
	relay         ports.Relay
	log           zerolog.Logger
}

// NewNotificationService returns a NotificationService implementation.
func NewNotificationService(
	accounts ports.AccountRepository,
	notifications ports.NotificationRepository,
	relay ports.Relay,
	log zerolog.Logger,
) ports.NotificationService {
	return &notificationService{
		accounts:      accounts,
		notifications: notifications,
		relay:         relay,
		log:           log,
	}
}

// Deliver stores n and pushes it live. Self-notifications are dropped.
func (s *notificationService) Deliver(ctx context.Context, n domain.Notification) error {
	if n.RecipientID == "" || n.RecipientID == n.ActorID {
		return nil
	}

	created, err := s.notifications.Create(ctx, &n)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}

	if actor, err := s.accounts.FindByID(ctx, created.ActorID); err == nil {
		summary := actor.Summary()
		created.Actor = &summary
	}

	ev, err := ports.NewEvent(ports.EventNotification, created)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	if _, err := s.relay.Publish(ctx, created.RecipientID, ev); err != nil {
		s.log.Warn().Err(err).Str("recipient_id", created.RecipientID).Msg("notification push failed")
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	list, err := s.notifications.ListByRecipient(ctx, recipientID, unreadOnly, notificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	actorIDs := make([]string, 0, len(list))
	for _, n := range list {
		actorIDs = append(actorIDs, n.ActorID)
	}
	actors, err := summaries(ctx, s.accounts, actorIDs)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for _, n := range list {
		a := actors[n.ActorID]
		n.Actor = &a
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID string) (*domain.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, notificationID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}
