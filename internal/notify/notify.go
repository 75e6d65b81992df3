package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reason tells subscribers which operation triggered a regeneration.
type Reason string

const (
	ReasonUpsert Reason = "upsert"
	ReasonDelete Reason = "delete"
)

// Event is published after handler files have been regenerated.
type Event struct {
	Hosts  []string  `json:"hosts"`
	Reason Reason    `json:"reason"`
	At     time.Time `json:"at"`
}

// Publisher announces regenerations to whoever reloads the gateway.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop is used when no notification backend is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher publishes events as JSON on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", p.channel, err)
	}
	return nil
}

// Ping reports whether the Redis backend is reachable.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Channel returns the pub/sub channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}
