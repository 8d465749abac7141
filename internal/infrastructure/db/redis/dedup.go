package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 10 * time.Minute

// MessageDedup maps a sender's temporary message id to the persisted message
// id so a retried send returns the original message.
// Key format: dedup:msg:<sender_id>:<temp_id>
type MessageDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMessageDedup creates a MessageDedup wrapping the given Redis client.
func NewMessageDedup(client *redis.Client) *MessageDedup {
	return &MessageDedup{client: client, ttl: dedupTTL}
}

// Lookup returns the message id remembered for tempID, if any.
func (d *MessageDedup) Lookup(ctx context.Context, senderID, tempID string) (string, bool, error) {
	id, err := d.client.Get(ctx, dedupKey(senderID, tempID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dedup lookup: %w", err)
	}
	return id, true, nil
}

// Remember records messageID for tempID (expires after dedupTTL). An existing
// entry is kept and its message id returned.
func (d *MessageDedup) Remember(ctx context.Context, senderID, tempID, messageID string) (string, error) {
	key := dedupKey(senderID, tempID)
	set, err := d.client.SetNX(ctx, key, messageID, d.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("dedup remember: %w", err)
	}
	if set {
		return messageID, nil
	}
	owner, err := d.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return messageID, nil
	}
	if err != nil {
		return "", fmt.Errorf("dedup remember: %w", err)
	}
	return owner, nil
}

func dedupKey(senderID, tempID string) string {
	return fmt.Sprintf("dedup:msg:%s:%s", senderID, tempID)
}
