package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/ports"
)

// PresenceFunc is called when an account gains its first session (online) or
// loses its last one.
type PresenceFunc func(accountID string, online bool)

// Hub is the in-process session registry. Every session belongs to exactly
// one account and only receives events published to that account.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
	presence []PresenceFunc
	gauge    prometheus.Gauge
	log      zerolog.Logger

	// presenceMu is taken before mu and held through the callbacks so
	// online/offline transitions reach them in the order they happened.
	presenceMu sync.Mutex
}

type Option func(*Hub)

// WithSessionGauge tracks the number of connected sessions.
func WithSessionGauge(g prometheus.Gauge) Option {
	return func(h *Hub) { h.gauge = g }
}

func NewHub(log zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[string]map[*Client]struct{}),
		log:      log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ ports.Relay = (*Hub)(nil)

// OnPresence registers fn for presence changes. It must be called before
// sessions connect.
func (h *Hub) OnPresence(fn PresenceFunc) {
	h.presence = append(h.presence, fn)
}

func (h *Hub) Register(c *Client) {
	h.presenceMu.Lock()
	defer h.presenceMu.Unlock()

	h.mu.Lock()
	set, ok := h.sessions[c.AccountID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[c.AccountID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	if h.gauge != nil {
		h.gauge.Inc()
	}
	h.log.Debug().Str("client_id", c.ID).Str("account_id", c.AccountID).Msg("session registered")
	if !ok {
		h.notifyPresence(c.AccountID, true)
	}
}

// Unregister removes c and closes its send queue. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.presenceMu.Lock()
	defer h.presenceMu.Unlock()

	h.mu.Lock()
	set, ok := h.sessions[c.AccountID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := set[c]; !member {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	last := len(set) == 0
	if last {
		delete(h.sessions, c.AccountID)
	}
	h.mu.Unlock()

	c.close()
	if h.gauge != nil {
		h.gauge.Dec()
	}
	h.log.Debug().Str("client_id", c.ID).Str("account_id", c.AccountID).Msg("session unregistered")
	if last {
		h.notifyPresence(c.AccountID, false)
	}
}

func (h *Hub) notifyPresence(accountID string, online bool) {
	for _, fn := range h.presence {
		fn(accountID, online)
	}
}

// Deliver fans ev out to the local sessions of accountID and reports whether
// any of them accepted it. Sessions whose queue is full are dropped.
func (h *Hub) Deliver(accountID string, ev ports.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("event", ev.Name).Msg("failed to encode event")
		return false
	}

	var slow []*Client
	delivered := false

	h.mu.RLock()
	for c := range h.sessions[accountID] {
		if c.enqueue(data) {
			delivered = true
		} else {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Str("client_id", c.ID).Str("account_id", accountID).Msg("send queue full, dropping session")
		h.Unregister(c)
	}
	return delivered
}

// Publish implements ports.Relay for single-instance deployments.
func (h *Hub) Publish(_ context.Context, accountID string, ev ports.Event) (bool, error) {
	return h.Deliver(accountID, ev), nil
}

func (h *Hub) Online(accountID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[accountID]) > 0
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

// Close drops every session. Their write pumps send a close frame and exit.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.sessions {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}
