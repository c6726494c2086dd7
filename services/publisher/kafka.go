package publisher

import (
	"context"
	"time"

	"sjsage522/bonoworker/logger"
	apperrors "sjsage522/bonoworker/pkg/errors"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes the document to a Kafka topic
type KafkaPublisher struct {
	writer *kafka.Writer
	ctx    context.Context
	log    *logger.Logger
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaPublisher{
		writer: w,
		ctx:    ctx,
		log:    logger.ForPublisher().WithField("topic", topic),
	}
}

// Publish writes message synchronously, keyed by key
func (p *KafkaPublisher) Publish(key string, message []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: message,
	}
	if err := p.writer.WriteMessages(p.ctx, msg); err != nil {
		return apperrors.NewPublisher("kafka", "failed to write message", err)
	}

	p.log.Info().Str("key", key).Int("bytes", len(message)).Msg("Document published")
	return nil
}

// Close flushes pending writes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
