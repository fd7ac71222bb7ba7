package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the redis pub/sub channel events travel on.
const DefaultChannel = "visaflow:events"

// RedisBus publishes events to a redis channel so every instance of the
// service sees them, and relays what arrives on that channel into a local
// Hub. When redis is unavailable, events go straight to the hub.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *Hub
	logger  *zap.Logger
}

func NewRedisBus(client *redis.Client, channel string, local *Hub, logger *zap.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, channel: channel, local: local, logger: logger}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (b *RedisBus) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.logger.Error("failed to encode event", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally",
			zap.String("type", string(e.Type)),
			zap.Error(err),
		)
		b.local.Publish(ctx, e)
	}
}

// Start subscribes to the channel and relays messages into the local hub
// until ctx is done or stop is called. It returns once the subscription is
// confirmed, so events published afterwards are not missed.
func (b *RedisBus) Start(ctx context.Context) (stop func(), err error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					b.logger.Warn("discarding malformed event", zap.Error(err))
					continue
				}
				b.local.Publish(ctx, e)
			}
		}
	}()

	b.logger.Info("relaying events from redis", zap.String("channel", b.channel))
	return func() {
		cancel()
		sub.Close()
		<-done
	}, nil
}
