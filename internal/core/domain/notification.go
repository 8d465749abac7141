package domain

import "time"

// NotificationKind names what triggered a notification.
type NotificationKind string

const (
	NotifyLike    NotificationKind = "like"
	NotifyComment NotificationKind = "comment"
	NotifyFollow  NotificationKind = "follow"
	NotifyMessage NotificationKind = "message"
)

// Notification tells Recipient that Actor did something.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	Actor       *AccountSummary  `json:"actor,omitempty"`
	Kind        NotificationKind `json:"kind"`
	PostID      string           `json:"post_id,omitempty"`
	Message     string           `json:"message,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
