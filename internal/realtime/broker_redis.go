package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RoomsChannel is the Redis pub/sub channel shared by all instances.
const RoomsChannel = "passionstreams:rooms"

// RedisBroker fans room publishes out to every instance subscribed to
// RoomsChannel, including the publishing one.
type RedisBroker struct {
	client  *redis.Client
	logger  *zap.Logger
	mu      sync.RWMutex
	handler func(Envelope)
}

// NewRedisBroker connects to redisURL and checks it with a PING.
func NewRedisBroker(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBroker{client: client, logger: logger}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, RoomsChannel, data).Err()
}

func (b *RedisBroker) Subscribe(handler func(Envelope)) {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
}

func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, RoomsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", RoomsChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed room envelope", zap.Error(err))
				continue
			}
			b.mu.RLock()
			h := b.handler
			b.mu.RUnlock()
			if h != nil {
				h(env)
			}
		}
	}
}

// Ping is used by the readiness probe.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
