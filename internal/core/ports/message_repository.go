package ports

import (
	"context"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
)

// ConversationSummary is one row of an account's inbox.
type ConversationSummary struct {
	PeerID      string
	LastMessage *domain.Message
	Unread      int64
}

// MessageRepository persists direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	// Between returns the messages exchanged by a and b, oldest first.
	Between(ctx context.Context, a, b string) ([]*domain.Message, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	MarkRead(ctx context.Context, id string) (*domain.Message, error)
	// MarkConversationRead flags every unread message from senderID to receiverID.
	MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error)
	Delete(ctx context.Context, id string) error
	// Conversations lists the latest message per peer, most recent first.
	Conversations(ctx context.Context, accountID string) ([]ConversationSummary, error)
	DeleteByAccount(ctx context.Context, accountID string) error
}
