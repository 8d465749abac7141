package ports

import (
	"context"

	"github.com/connectify/social-api/internal/core/domain"
)

// SendMessageInput is a message submitted by a sender. TempID is the client's
// provisional identifier, echoed back so the client can reconcile.
type SendMessageInput struct {
	SenderID   string
	ReceiverID string
	Text       string
	TempID     string
}

// SendResult is the sender's acknowledgment.
type SendResult struct {
	Message   *domain.Message `json:"message"`
	TempID    string          `json:"temp_id,omitempty"`
	Delivered bool            `json:"delivered"`
	Duplicate bool            `json:"-"`
}

// MessageService implements the direct messaging relay.
type MessageService interface {
	Send(ctx context.Context, in SendMessageInput) (*SendResult, error)
	History(ctx context.Context, actorID, userA, userB string) ([]*domain.Message, error)
	MarkRead(ctx context.Context, actorID, messageID string) (*domain.Message, error)
	MarkConversationRead(ctx context.Context, actorID, peerID string) (int64, error)
	Delete(ctx context.Context, actorID, messageID string) error
	Conversations(ctx context.Context, actorID string) ([]domain.Conversation, error)
}
