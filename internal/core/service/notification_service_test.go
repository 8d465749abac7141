package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

func TestNotificationService_Deliver(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	alice := w.accounts.add("alice")
	bob := w.accounts.add("bob")

	err := w.notify.Deliver(ctx, domain.Notification{
		RecipientID: bob.ID,
		ActorID:     alice.ID,
		Kind:        domain.NotifyFollow,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	events := w.relay.eventsFor(bob.ID)
	if len(events) != 1 || events[0].Name != ports.EventNotification {
		t.Fatalf("expected notification event, got %+v", events)
	}
	var pushed domain.Notification
	if err := json.Unmarshal(events[0].Data, &pushed); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if pushed.Actor == nil || pushed.Actor.Username != "alice" {
		t.Fatalf("expected actor summary attached, got %+v", pushed.Actor)
	}

	list, err := w.notify.List(ctx, bob.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Kind != domain.NotifyFollow {
		t.Fatalf("expected stored follow notification, got %+v", list)
	}
}

func TestNotificationService_Deliver_SkipsSelfAndToleratesRelay(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	alice := w.accounts.add("alice")
	bob := w.accounts.add("bob")

	if err := w.notify.Deliver(ctx, domain.Notification{RecipientID: alice.ID, ActorID: alice.ID, Kind: domain.NotifyLike}); err != nil {
		t.Fatalf("self: %v", err)
	}
	if list, _ := w.notify.List(ctx, alice.ID, false); len(list) != 0 {
		t.Fatalf("expected self notification dropped, got %d", len(list))
	}

	w.relay.err = errors.New("relay down")
	if err := w.notify.Deliver(ctx, domain.Notification{RecipientID: bob.ID, ActorID: alice.ID, Kind: domain.NotifyLike}); err != nil {
		t.Fatalf("expected relay failure tolerated, got %v", err)
	}
	if list, _ := w.notify.List(ctx, bob.ID, false); len(list) != 1 {
		t.Fatalf("expected notification stored despite relay failure")
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	alice := w.accounts.add("alice")
	bob := w.accounts.add("bob")

	for i := 0; i < 3; i++ {
		_ = w.notify.Deliver(ctx, domain.Notification{RecipientID: bob.ID, ActorID: alice.ID, Kind: domain.NotifyLike})
	}
	list, _ := w.notify.List(ctx, bob.ID, true)
	if len(list) != 3 {
		t.Fatalf("expected 3 unread, got %d", len(list))
	}

	if _, err := w.notify.MarkRead(ctx, alice.ID, list[0].ID); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected other recipients to get not found, got %v", err)
	}
	n, err := w.notify.MarkRead(ctx, bob.ID, list[0].ID)
	if err != nil || !n.Read {
		t.Fatalf("expected read notification, got %+v (%v)", n, err)
	}

	count, err := w.notify.MarkAllRead(ctx, bob.ID)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 marked, got %d (%v)", count, err)
	}
	if unread, _ := w.notify.List(ctx, bob.ID, true); len(unread) != 0 {
		t.Fatalf("expected no unread left, got %d", len(unread))
	}
}
