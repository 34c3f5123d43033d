package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher is the subset of the go-redis client used for fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisDispatcher publishes every event to a Redis channel and then hands it
// to the local dispatcher. Redis failures are logged, never returned.
type RedisDispatcher struct {
	local     Dispatcher
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// NewRedisDispatcher wraps local with Redis fan-out on channel.
func NewRedisDispatcher(local Dispatcher, publisher Publisher, channel string, logger *zap.Logger) *RedisDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDispatcher{local: local, publisher: publisher, channel: channel, logger: logger}
}

// Publish implements Dispatcher.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		d.logger.Warn("encode event", zap.String("event_type", string(event.Type)), zap.Error(err))
	} else if err := d.publisher.Publish(ctx, d.channel, body).Err(); err != nil {
		d.logger.Warn("publish event to redis",
			zap.String("channel", d.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return d.local.Publish(ctx, event)
}

// Subscribe implements Dispatcher.
func (d *RedisDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.local.Subscribe(eventType, handler)
}
