package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/ports"
)

func newTestClient(h *Hub, accountID string, buffer int) *Client {
	cfg := DefaultConfig()
	cfg.SendBuffer = buffer
	return NewClient(h, nil, accountID, cfg)
}

func drain(c *Client) []ports.Event {
	var out []ports.Event
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var ev ports.Event
			_ = json.Unmarshal(data, &ev)
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestHub_PublishIsolatesAccounts(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := newTestClient(h, "alice", 8)
	bob := newTestClient(h, "bob", 8)
	h.Register(alice)
	h.Register(bob)

	ev, _ := ports.NewEvent(ports.EventReceiveMessage, map[string]string{"text": "hi"})
	delivered, err := h.Publish(context.Background(), "bob", ev)
	if err != nil || !delivered {
		t.Fatalf("expected delivery to bob, got %v (%v)", delivered, err)
	}

	if got := drain(alice); len(got) != 0 {
		t.Fatalf("alice must not receive bob's events, got %+v", got)
	}
	got := drain(bob)
	if len(got) != 1 || got[0].Name != ports.EventReceiveMessage {
		t.Fatalf("expected one receiveMessage for bob, got %+v", got)
	}
}

func TestHub_PublishToOfflineAccount(t *testing.T) {
	h := NewHub(zerolog.Nop())
	ev, _ := ports.NewEvent(ports.EventPong, nil)
	delivered, err := h.Publish(context.Background(), "nobody", ev)
	if err != nil || delivered {
		t.Fatalf("expected no delivery, got %v (%v)", delivered, err)
	}
}

func TestHub_FansOutToEverySession(t *testing.T) {
	h := NewHub(zerolog.Nop())
	first := newTestClient(h, "alice", 8)
	second := newTestClient(h, "alice", 8)
	h.Register(first)
	h.Register(second)

	ev, _ := ports.NewEvent(ports.EventNotification, nil)
	h.Deliver("alice", ev)

	if len(drain(first)) != 1 || len(drain(second)) != 1 {
		t.Fatalf("expected both sessions to receive the event")
	}
	if h.Sessions() != 2 {
		t.Fatalf("expected 2 sessions, got %d", h.Sessions())
	}
}

func TestHub_PresenceHooks(t *testing.T) {
	h := NewHub(zerolog.Nop())
	var mu sync.Mutex
	var changes []bool
	h.OnPresence(func(accountID string, online bool) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, online)
	})

	a1 := newTestClient(h, "alice", 1)
	a2 := newTestClient(h, "alice", 1)
	h.Register(a1)
	h.Register(a2)
	h.Unregister(a1)
	h.Unregister(a1)
	if !h.Online("alice") {
		t.Fatalf("expected alice online with one session left")
	}
	h.Unregister(a2)

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Fatalf("expected online then offline, got %v", changes)
	}
	if h.Online("alice") {
		t.Fatalf("expected alice offline")
	}
}

func TestHub_PresenceOrderUnderConcurrency(t *testing.T) {
	h := NewHub(zerolog.Nop())
	var mu sync.Mutex
	var changes []bool
	h.OnPresence(func(accountID string, online bool) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, online)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := newTestClient(h, "alice", 1)
				h.Register(c)
				h.Unregister(c)
			}
		}()
	}
	wg.Wait()

	if len(changes) == 0 || len(changes)%2 != 0 {
		t.Fatalf("expected paired transitions, got %d", len(changes))
	}
	for i, online := range changes {
		if online != (i%2 == 0) {
			t.Fatalf("transition %d out of order: %v", i, changes[max(0, i-2):i+1])
		}
	}
	if h.Online("alice") {
		t.Fatalf("expected alice offline")
	}
}

func TestHub_DropsSlowSession(t *testing.T) {
	h := NewHub(zerolog.Nop())
	slow := newTestClient(h, "alice", 1)
	h.Register(slow)

	ev, _ := ports.NewEvent(ports.EventNotification, nil)
	if !h.Deliver("alice", ev) {
		t.Fatalf("expected first event queued")
	}
	if h.Deliver("alice", ev) {
		t.Fatalf("expected full queue to reject the second event")
	}
	if h.Online("alice") {
		t.Fatalf("expected slow session dropped")
	}
	if slow.Send(ev) {
		t.Fatalf("expected closed session to refuse sends")
	}
}

func TestHub_Close(t *testing.T) {
	h := NewHub(zerolog.Nop())
	h.Register(newTestClient(h, "alice", 1))
	h.Register(newTestClient(h, "bob", 1))
	h.Close()
	if h.Sessions() != 0 {
		t.Fatalf("expected no sessions after close, got %d", h.Sessions())
	}
}
