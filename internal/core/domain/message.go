package domain

import (
	"strings"
	"time"
)

// MessageStatus is the delivery state of a direct message.
//
//	Sent → Delivered (receiver connected) → Read
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// Message is a direct message between two accounts.
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	ReceiverID  string     `json:"receiver_id"`
	Text        string     `json:"text"`
	Read        bool       `json:"read"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Status derives the state machine position from the stored flags.
func (m *Message) Status() MessageStatus {
	switch {
	case m.Read:
		return MessageRead
	case m.DeliveredAt != nil:
		return MessageDelivered
	default:
		return MessageSent
	}
}

// Involves reports whether accountID is the sender or the receiver.
func (m *Message) Involves(accountID string) bool {
	return m.SenderID == accountID || m.ReceiverID == accountID
}

// Peer returns the other participant from accountID's point of view.
func (m *Message) Peer(accountID string) string {
	if m.SenderID == accountID {
		return m.ReceiverID
	}
	return m.SenderID
}

// NormalizeMessageText trims text and rejects empty input.
func NormalizeMessageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewValidationError("text", "must not be empty")
	}
	return text, nil
}

// Conversation summarises the thread between an account and one peer.
type Conversation struct {
	Peer        AccountSummary `json:"peer"`
	LastMessage Message        `json:"last_message"`
	Unread      int64          `json:"unread"`
}
