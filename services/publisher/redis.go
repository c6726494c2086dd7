package publisher

import (
	"context"
	"encoding/base64"

	"sjsage522/bonoworker/logger"
	apperrors "sjsage522/bonoworker/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	stream          string
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		stream:          stream,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher().WithField("stream", stream),
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping() error {
	return p.client.Ping(p.ctx).Err()
}

// Publish appends a message to the stream under DocumentKey, tagged with
// key, then trims the stream.
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	id, err := p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"run_id":    key,
			DocumentKey: encodedMessage,
		},
	}).Result()
	if err != nil {
		return apperrors.NewPublisher("redis", "failed to add stream entry", err)
	}

	if err := p.TrimStream(); err != nil {
		return err
	}

	p.log.Info().Str("id", id).Str("run_id", key).Int("bytes", len(message)).Msg("Document published")
	return nil
}

// TrimStream trims the stream to the configured maximum length
func (p *RedisPublisher) TrimStream() error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	if err := p.client.XTrimMaxLen(p.ctx, p.stream, int64(p.streamMaxLength)).Err(); err != nil {
		return apperrors.NewPublisher("redis", "failed to trim stream", err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
