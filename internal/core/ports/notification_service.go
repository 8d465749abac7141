package ports

import (
	"context"

	"github.com/connectify/social-api/internal/core/domain"
)

type NotificationService interface {
	// Deliver persists a notification and pushes it to the recipient's sessions.
	Deliver(ctx context.Context, n domain.Notification) error
	List(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}
