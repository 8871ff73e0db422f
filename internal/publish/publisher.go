// Package publish fans recorded deployment events out to other consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/storage"
)

// Publisher announces appended deployment events.
type Publisher interface {
	Publish(ctx context.Context, event *storage.DeploymentEvent) error
	Close() error
}

// Noop discards events. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, *storage.DeploymentEvent) error { return nil }
func (Noop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event as JSON keyed by region, so one region's events
// stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(w, topic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, topic: topic, timeout: 5 * time.Second, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *storage.DeploymentEvent) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish deployment event to %s: %w", p.topic, err)
	}
	p.logger.Debug("Deployment event published",
		zap.String("topic", p.topic),
		zap.String("id", event.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(event *storage.DeploymentEvent) (kafka.Message, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode deployment event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Region),
		Value: b,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "plan-id", Value: []byte(event.PlanID)},
		},
	}, nil
}
