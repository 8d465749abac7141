package ports

import (
	"context"

	"github.com/connectify/social-api/internal/core/domain"
)

// NotificationRepository persists notifications per recipient.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]*domain.Notification, error)
	// MarkRead flags one notification; it must belong to recipientID.
	MarkRead(ctx context.Context, id, recipientID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	DeleteByAccount(ctx context.Context, accountID string) error
}
