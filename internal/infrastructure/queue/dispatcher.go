package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	deliverTimeout = 10 * time.Second
)

// Dispatcher writes notifications off the request path. Work is sharded by
// recipient with consistent hashing, so one recipient's notifications are
// stored in the order they were raised.
type Dispatcher struct {
	workers []chan domain.Notification
	service ports.NotificationService
	log     zerolog.Logger

	dropped prometheus.Counter
	latency prometheus.Observer
}

var _ ports.Notifier = (*Dispatcher)(nil)

type Option func(*Dispatcher)

// WithMetrics records dropped notifications and delivery latency.
func WithMetrics(dropped prometheus.Counter, latency prometheus.Observer) Option {
	return func(d *Dispatcher) {
		d.dropped = dropped
		d.latency = latency
	}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.NotificationService, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Notification, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run starts the workers and blocks until ctx is cancelled and the workers
// have drained what was already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	done := make(chan struct{}, len(d.workers))
	for i, ch := range d.workers {
		go func(id int, ch <-chan domain.Notification) {
			d.runWorker(ctx, id, ch)
			done <- struct{}{}
		}(i, ch)
	}
	for range d.workers {
		<-done
	}
	return nil
}

// Notify queues n for its recipient's worker. It never blocks: when the
// shard is full the notification is dropped and logged.
func (d *Dispatcher) Notify(n domain.Notification) {
	if n.RecipientID == "" || n.RecipientID == n.ActorID {
		return
	}
	select {
	case d.workers[d.shardIndex(n.RecipientID)] <- n:
	default:
		if d.dropped != nil {
			d.dropped.Inc()
		}
		d.log.Warn().
			Str("recipient_id", n.RecipientID).
			Str("kind", string(n.Kind)).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case n := <-ch:
			d.deliver(context.Background(), id, n)
		}
	}
}

// drain delivers what is still buffered after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan domain.Notification) {
	for {
		select {
		case n := <-ch:
			d.deliver(context.Background(), id, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(parent context.Context, id int, n domain.Notification) {
	ctx, cancel := context.WithTimeout(parent, deliverTimeout)
	defer cancel()

	start := time.Now()
	if err := d.service.Deliver(ctx, n); err != nil {
		d.log.Error().Err(err).
			Str("recipient_id", n.RecipientID).
			Str("kind", string(n.Kind)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	if d.latency != nil {
		d.latency.Observe(time.Since(start).Seconds())
	}
}
