package ports

import (
	"context"
	"encoding/json"
	"fmt"
)

// Realtime event names exchanged with connected sessions.
const (
	EventJoinRoom       = "joinRoom"
	EventSendMessage    = "sendMessage"
	EventDeleteMessage  = "deleteMessage"
	EventMarkRead       = "markRead"
	EventPing           = "ping"
	EventReceiveMessage = "receiveMessage"
	EventMessageSent    = "messageSent"
	EventMessageError   = "messageError"
	EventMessageDeleted = "messageDeleted"
	EventMessageRead    = "messageRead"
	EventNotification   = "notification"
	EventPong           = "pong"
	EventError          = "error"
)

// Event is the frame format of the realtime channel.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an Event.
func NewEvent(name string, data any) (Event, error) {
	if data == nil {
		return Event{Name: name}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", name, err)
	}
	return Event{Name: name, Data: raw}, nil
}

// Relay pushes events to the live sessions of an account. Each account has its
// own channel; an event published for one account never reaches another.
type Relay interface {
	// Publish reports whether at least one session received the event.
	Publish(ctx context.Context, accountID string, event Event) (bool, error)
}
