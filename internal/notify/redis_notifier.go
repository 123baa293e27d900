// Package notify implements the queue's wake-up side channel over Redis
// pub/sub, standing in for Postgres LISTEN/NOTIFY. Delivery is
// best-effort: a missed message only costs the worker one extra polling
// interval, since Core.Pick always remains the source of truth.
package notify

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/chatrag/ragcore/internal/logger"
)

// RedisNotifier publishes and subscribes to wake-up hints via Redis.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier wraps an existing Redis client.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// Notify publishes payload (typically the new row's id) on channel.
func (n *RedisNotifier) Notify(ctx context.Context, channel string, payload string) error {
	return n.client.Publish(ctx, channel, payload).Err()
}

// Listen returns a channel of hints received on channel. The returned
// channel is closed when ctx is canceled or the subscription breaks.
func (n *RedisNotifier) Listen(ctx context.Context, channel string) (<-chan string, error) {
	sub := n.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					logger.Debug(ctx, "notify buffer full, dropping hint", "channel", channel)
				}
			}
		}
	}()
	return out, nil
}
