package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/staywatch/internal/model"
)

// Ensure RedisStreamNotifier implements model.Notifier.
var _ model.Notifier = (*RedisStreamNotifier)(nil)

// RedisStreamNotifier appends each message to a Redis stream so another
// process can fan it out.
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

// RedisOptions configures the stream sink.
type RedisOptions struct {
	Addr   string
	DB     int
	Stream string
	MaxLen int64 // approximate cap on stream length, 0 for none
}

// NewRedisStreamNotifier connects to Redis and verifies it answers.
func NewRedisStreamNotifier(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisStreamNotifier, error) {
	if opts.Addr == "" || opts.Stream == "" {
		return nil, fmt.Errorf("redis: addr and stream are required: %w", model.ErrMissingCredentials)
	}
	client := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return &RedisStreamNotifier{
		client: client,
		stream: opts.Stream,
		maxLen: opts.MaxLen,
		logger: logger,
	}, nil
}

// Deliver XADDs the message with its send time.
func (n *RedisStreamNotifier) Deliver(ctx context.Context, text string) error {
	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"text":    text,
			"sent_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}
	id, err := n.client.XAdd(ctx, args).Result()
	if err != nil {
		return &model.DeliveryError{Channel: "redis", Err: err}
	}
	n.logger.Debug("redis message appended", "stream", n.stream, "id", id)
	return nil
}

// Close closes the Redis connection.
func (n *RedisStreamNotifier) Close() error {
	return n.client.Close()
}
