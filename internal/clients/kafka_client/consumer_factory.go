package kafka_client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type ConsumerFunc func(ctx context.Context, consumer *kafka.Consumer) error

// ConsumerFactory maps topics to the loop that consumes them.
type ConsumerFactory struct {
	cfg      KafkaConfig
	registry map[string]ConsumerFunc
}

func NewConsumerFactory(cfg KafkaConfig) *ConsumerFactory {
	return &ConsumerFactory{cfg: cfg, registry: make(map[string]ConsumerFunc)}
}

func (f *ConsumerFactory) RegisterConsumer(topic string, consumerFunc ConsumerFunc) {
	f.registry[topic] = consumerFunc
}

// StartConsumer subscribes to topic and blocks in its registered loop until
// the loop returns.
func (f *ConsumerFactory) StartConsumer(ctx context.Context, topic string) error {
	consumerFunc, exists := f.registry[topic]
	if !exists {
		return fmt.Errorf("[ConsumerFactory] No consumer found for topic: %s", topic)
	}

	consumer, err := NewConsumer(f.cfg, topic)
	if err != nil {
		return fmt.Errorf("[ConsumerFactory] Failed to initialize Kafka consumer: %w", err)
	}
	defer consumer.Close()

	slog.Info("[ConsumerFactory] Starting consumer for topic...", slog.String("topic", topic))
	return consumerFunc(ctx, consumer)
}
