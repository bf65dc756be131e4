package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stockflow/backend/internal/domain/notification"
	"go.uber.org/zap"
)

// DefaultRedisChannel is the Pub/Sub channel deliveries are published on
const DefaultRedisChannel = "stockflow:notifications"

// Publisher is the part of the Redis client the sink needs
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes each delivery as JSON on a Redis Pub/Sub channel
type RedisSink struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// RedisSinkOption configures a RedisSink
type RedisSinkOption func(*RedisSink)

// WithRedisChannel sets the Pub/Sub channel name
func WithRedisChannel(channel string) RedisSinkOption {
	return func(s *RedisSink) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithRedisLogger sets the sink logger
func WithRedisLogger(logger *zap.Logger) RedisSinkOption {
	return func(s *RedisSink) {
		s.logger = logger
	}
}

// NewRedisSink creates a RedisSink. The caller keeps ownership of the client.
func NewRedisSink(publisher Publisher, opts ...RedisSinkOption) *RedisSink {
	s := &RedisSink{
		publisher: publisher,
		channel:   DefaultRedisChannel,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Sink
func (s *RedisSink) Name() string { return "redis" }

// Channel returns the channel deliveries are published on
func (s *RedisSink) Channel() string { return s.channel }

// Deliver implements Sink. Every delivery is attempted; the returned error
// joins the failures.
func (s *RedisSink) Deliver(ctx context.Context, deliveries []notification.Delivery) error {
	var errs []error
	for _, d := range deliveries {
		data, err := json.Marshal(NewMessage(d))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to marshal notification %s: %w", d.ID, err))
			continue
		}
		if err := s.publisher.Publish(ctx, s.channel, data).Err(); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish notification %s: %w", d.ID, err))
			continue
		}
		s.logger.Debug("Published notification",
			zap.String("channel", s.channel),
			zap.String("notification_id", d.ID.String()),
		)
	}
	return errors.Join(errs...)
}
