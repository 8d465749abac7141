package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
)

type recordingService struct {
	mu        sync.Mutex
	delivered []domain.Notification
	err       error
}

func (s *recordingService) Deliver(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, n)
	return nil
}

func (s *recordingService) List(context.Context, string, bool) ([]*domain.Notification, error) {
	return nil, nil
}

func (s *recordingService) MarkRead(context.Context, string, string) (*domain.Notification, error) {
	return nil, nil
}

func (s *recordingService) MarkAllRead(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *recordingService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	for i := 0; i < 20; i++ {
		d.Notify(domain.Notification{RecipientID: "bob", ActorID: "alice", Kind: domain.NotifyLike, Message: string(rune('a' + i))})
	}
	waitFor(t, func() bool { return svc.count() == 20 })

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i, n := range svc.delivered {
		if n.Message != string(rune('a'+i)) {
			t.Fatalf("expected in-order delivery, got %q at %d", n.Message, i)
		}
	}
}

func TestDispatcher_SkipsSelfNotifications(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Notify(domain.Notification{RecipientID: "alice", ActorID: "alice"})
	d.Notify(domain.Notification{ActorID: "alice"})
	if len(d.workers[0]) != 0 {
		t.Fatalf("expected nothing queued, got %d", len(d.workers[0]))
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	svc := &recordingService{}
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_dropped_total"})
	d := NewDispatcher(1, svc, zerolog.Nop(), WithMetrics(dropped, nil))

	for i := 0; i < channelBuffer+3; i++ {
		d.Notify(domain.Notification{RecipientID: "bob", ActorID: "alice"})
	}
	if got := testutil.ToFloat64(dropped); got != 3 {
		t.Fatalf("expected 3 dropped, got %v", got)
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(2, svc, zerolog.Nop())
	for i := 0; i < 5; i++ {
		d.Notify(domain.Notification{RecipientID: "bob", ActorID: "alice"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if svc.count() != 5 {
		t.Fatalf("expected queued notifications delivered on shutdown, got %d", svc.count())
	}
}

func TestDispatcher_ServiceErrorDoesNotStopWorker(t *testing.T) {
	svc := &recordingService{err: errors.New("db down")}
	d := NewDispatcher(1, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	d.Notify(domain.Notification{RecipientID: "bob", ActorID: "alice"})
	waitFor(t, func() bool { return len(d.workers[0]) == 0 })

	svc.mu.Lock()
	svc.err = nil
	svc.mu.Unlock()
	d.Notify(domain.Notification{RecipientID: "bob", ActorID: "alice"})
	waitFor(t, func() bool { return svc.count() >= 1 })
}

func TestShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingService{}, zerolog.Nop())
	if d.shardIndex("bob") != d.shardIndex("bob") {
		t.Fatalf("expected deterministic shard")
	}
	if idx := d.shardIndex("bob"); idx < 0 || idx >= 8 {
		t.Fatalf("shard out of range: %d", idx)
	}
}
