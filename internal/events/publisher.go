// Package events publishes domain events on Redis pub/sub channels so the
// Gateway can forward them to dashboards over SSE.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Event types. The type doubles as the Redis channel name.
const (
	TypeMatchesFound       = "EVENT_MATCHES_FOUND"
	TypeApplicationCreated = "EVENT_APPLICATION_CREATED"
	TypeStatusChanged      = "EVENT_STATUS_CHANGED"
)

// Event is a flat string map serialised to JSON with its type under "type".
type Event struct {
	Type   string
	Fields map[string]string
}

// MarshalJSON flattens Fields and adds the "type" key.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["type"] = e.Type
	return json.Marshal(out)
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RedisPublisher publishes each event on the channel named after its type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher backed by rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	if err := p.rdb.Publish(ctx, e.Type, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Nop discards events. Used when REDIS_URL is not configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
