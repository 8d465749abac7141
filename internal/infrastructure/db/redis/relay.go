package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/ports"
)

const channelPrefix = "relay:account:"

// LocalDeliverer hands an event to the sessions connected to this instance.
type LocalDeliverer interface {
	Deliver(accountID string, ev ports.Event) bool
}

// Relay publishes events on a per-account Redis channel. Each instance only
// subscribes to the channels of accounts with a local session, so the number
// of receivers reported by PUBLISH tells whether any session was reachable.
type Relay struct {
	client *redis.Client
	local  LocalDeliverer
	log    zerolog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

func NewRelay(client *redis.Client, local LocalDeliverer, log zerolog.Logger) *Relay {
	return &Relay{
		client: client,
		local:  local,
		log:    log,
		pubsub: client.Subscribe(context.Background()),
	}
}

var _ ports.Relay = (*Relay)(nil)

func (r *Relay) Publish(ctx context.Context, accountID string, ev ports.Event) (bool, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("relay publish: %w", err)
	}
	n, err := r.client.Publish(ctx, channelFor(accountID), data).Result()
	if err != nil {
		return false, fmt.Errorf("relay publish: %w", err)
	}
	return n > 0, nil
}

// Presence subscribes to an account's channel while it has local sessions.
// It matches realtime.PresenceFunc.
func (r *Relay) Presence(accountID string, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var err error
	if online {
		err = r.pubsub.Subscribe(ctx, channelFor(accountID))
	} else {
		err = r.pubsub.Unsubscribe(ctx, channelFor(accountID))
	}
	if err != nil {
		r.log.Error().Err(err).Str("account_id", accountID).Bool("online", online).Msg("relay subscription change failed")
	}
}

// Run forwards channel messages to local sessions until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return r.pubsub.Close()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			accountID, ok := accountFromChannel(msg.Channel)
			if !ok {
				continue
			}
			var ev ports.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed relay payload")
				continue
			}
			r.local.Deliver(accountID, ev)
		}
	}
}

func channelFor(accountID string) string {
	return channelPrefix + accountID
}

func accountFromChannel(channel string) (string, bool) {
	id, ok := strings.CutPrefix(channel, channelPrefix)
	return id, ok && id != ""
}
