package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// MessageDedup remembers which persisted message a sender's temporary id
// produced, so a resend after a lost acknowledgment is not stored twice.
type MessageDedup interface {
	Lookup(ctx context.Context, senderID, tempID string) (messageID string, found bool, err error)
	// Remember claims tempID for messageID unless another message already
	// holds it, and returns the id of the message that owns the claim.
	Remember(ctx context.Context, senderID, tempID, messageID string) (ownerID string, err error)
}

type messageReadPayload struct {
	MessageID string `json:"message_id,omitempty"`
	ReaderID  string `json:"reader_id"`
	Count     int64  `json:"count"`
}

type messageDeletedPayload struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
}

type messageService struct {
	accounts ports.AccountRepository
	messages ports.MessageRepository
	relay    ports.Relay
	dedup    MessageDedup
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewMessageService returns a MessageService implementation.
func NewMessageService(
	accounts ports.AccountRepository,
	messages ports.MessageRepository,
	relay ports.Relay,
	dedup MessageDedup,
	notifier ports.Notifier,
	log zerolog.Logger,
) ports.MessageService {
	return &messageService{
		accounts: accounts,
		messages: messages,
		relay:    relay,
		dedup:    dedup,
		notifier: notifier,
		log:      log,
	}
}

// Send persists the message first; live delivery is attempted afterwards and
// its failure never undoes the stored message.
func (s *messageService) Send(ctx context.Context, in ports.SendMessageInput) (*ports.SendResult, error) {
	if in.SenderID == in.ReceiverID {
		return nil, fmt.Errorf("send message: %w: cannot message yourself", domain.ErrInvalidOperation)
	}
	text, err := domain.NormalizeMessageText(in.Text)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, in.ReceiverID); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	// 1. Replay of an already persisted temp id.
	if in.TempID != "" {
		if existing := s.replay(ctx, in.SenderID, in.TempID); existing != nil {
			return &ports.SendResult{
				Message:   existing,
				TempID:    in.TempID,
				Delivered: existing.DeliveredAt != nil,
				Duplicate: true,
			}, nil
		}
	}

	// 2. Persist: the message is now Sent.
	msg, err := s.messages.Create(ctx, &domain.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	if in.TempID != "" {
		if res := s.claimTempID(ctx, in.SenderID, in.TempID, msg); res != nil {
			return res, nil
		}
	}

	// 3. Best-effort live push to the receiver's channel.
	delivered := s.publish(ctx, msg.ReceiverID, ports.EventReceiveMessage, msg)
	if delivered {
		now := time.Now().UTC()
		if err := s.messages.MarkDelivered(ctx, msg.ID, now); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to mark message delivered")
		} else {
			msg.DeliveredAt = &now
		}
	} else {
		s.notifier.Notify(domain.Notification{
			RecipientID: msg.ReceiverID,
			ActorID:     msg.SenderID,
			Kind:        domain.NotifyMessage,
			Message:     msg.Text,
			CreatedAt:   msg.CreatedAt,
		})
	}

	return &ports.SendResult{Message: msg, TempID: in.TempID, Delivered: delivered}, nil
}

// claimTempID records msg under tempID. When a concurrent send with the same
// temp id claimed it first, msg is removed and the owner is returned instead.
func (s *messageService) claimTempID(ctx context.Context, senderID, tempID string, msg *domain.Message) *ports.SendResult {
	ownerID, err := s.dedup.Remember(ctx, senderID, tempID, msg.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to remember temp id")
		return nil
	}
	if ownerID == "" || ownerID == msg.ID {
		return nil
	}

	owner, err := s.messages.FindByID(ctx, ownerID)
	if err != nil {
		s.log.Warn().Err(err).Str("message_id", ownerID).Msg("temp id owner not found, keeping new message")
		return nil
	}
	if err := s.messages.Delete(ctx, msg.ID); err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to drop duplicate message")
	}
	s.log.Debug().Str("message_id", ownerID).Str("temp_id", tempID).Msg("concurrent duplicate send dropped")
	return &ports.SendResult{
		Message:   owner,
		TempID:    tempID,
		Delivered: owner.DeliveredAt != nil,
		Duplicate: true,
	}
}

func (s *messageService) replay(ctx context.Context, senderID, tempID string) *domain.Message {
	id, found, err := s.dedup.Lookup(ctx, senderID, tempID)
	if err != nil {
		s.log.Warn().Err(err).Str("sender_id", senderID).Msg("temp id lookup failed, storing anyway")
		return nil
	}
	if !found {
		return nil
	}
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrMessageNotFound) {
			s.log.Warn().Err(err).Str("message_id", id).Msg("failed to load replayed message")
		}
		return nil
	}
	s.log.Debug().Str("message_id", id).Str("temp_id", tempID).Msg("duplicate send skipped")
	return msg
}

// History returns the conversation between userA and userB, oldest first.
// Only the two participants may read it.
func (s *messageService) History(ctx context.Context, actorID, userA, userB string) ([]*domain.Message, error) {
	if actorID != userA && actorID != userB {
		return nil, fmt.Errorf("message history: %w", domain.ErrForbidden)
	}
	msgs, err := s.messages.Between(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("message history: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// MarkRead moves a message to Read. Only its receiver may do so.
func (s *messageService) MarkRead(ctx context.Context, actorID, messageID string) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if msg.ReceiverID != actorID {
		return nil, fmt.Errorf("mark read: %w", domain.ErrForbidden)
	}
	if msg.Read {
		return msg, nil
	}

	updated, err := s.messages.MarkRead(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	s.publish(ctx, updated.SenderID, ports.EventMessageRead, messageReadPayload{
		MessageID: updated.ID,
		ReaderID:  actorID,
		Count:     1,
	})
	return updated, nil
}

func (s *messageService) MarkConversationRead(ctx context.Context, actorID, peerID string) (int64, error) {
	n, err := s.messages.MarkConversationRead(ctx, actorID, peerID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	if n > 0 {
		s.publish(ctx, peerID, ports.EventMessageRead, messageReadPayload{ReaderID: actorID, Count: n})
	}
	return n, nil
}

// Delete removes a message. Only its sender may do so; the receiver is told.
func (s *messageService) Delete(ctx context.Context, actorID, messageID string) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if msg.SenderID != actorID {
		return fmt.Errorf("delete message: %w", domain.ErrForbidden)
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	s.publish(ctx, msg.ReceiverID, ports.EventMessageDeleted, messageDeletedPayload{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
	})
	return nil
}

func (s *messageService) Conversations(ctx context.Context, actorID string) ([]domain.Conversation, error) {
	rows, err := s.messages.Conversations(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("conversations: %w", err)
	}

	peerIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		peerIDs = append(peerIDs, r.PeerID)
	}
	peers, err := summaries(ctx, s.accounts, peerIDs)
	if err != nil {
		return nil, fmt.Errorf("conversations: %w", err)
	}

	out := make([]domain.Conversation, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Conversation{
			Peer:        peers[r.PeerID],
			LastMessage: *r.LastMessage,
			Unread:      r.Unread,
		})
	}
	return out, nil
}

// publish pushes an event and reports live delivery. Errors are logged only.
func (s *messageService) publish(ctx context.Context, accountID, name string, data any) bool {
	ev, err := ports.NewEvent(name, data)
	if err != nil {
		s.log.Error().Err(err).Str("event", name).Msg("failed to build relay event")
		return false
	}
	delivered, err := s.relay.Publish(ctx, accountID, ev)
	if err != nil {
		s.log.Warn().Err(err).Str("event", name).Str("account_id", accountID).Msg("relay publish failed")
		return false
	}
	return delivered
}
