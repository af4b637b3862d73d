package kafka_client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client/utils"
	"github.com/spacesedan/sentimas/internal/models"
)

type Message struct {
	Key   []byte
	Value []byte
}

// Producer publishes batches inside Kafka transactions so a batch is visible
// to read_committed consumers all at once or not at all.
type Producer struct {
	producer *kafka.Producer
	mu       sync.Mutex
}

func NewProducer(ctx context.Context, cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...")

	p, err := kafka.NewProducer(cfg.producerConfigMap())
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{producer: p}, nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for _, m := range messages {
		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            m.Key,
			Value:          m.Value,
		}
		if err := p.produceWithRetry(msg); err != nil {
			return p.abort(ctx, err)
		}
	}

	var commitErr error
	for i := 0; i < 3; i++ {
		commitErr = p.producer.CommitTransaction(ctx)
		if commitErr == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", commitErr.Error()))
	}
	if commitErr != nil {
		return p.abort(ctx, fmt.Errorf("[KafkaClient] failed to commit transaction after 3 retries: %w", commitErr))
	}

	slog.Info("[KafkaClient] Published batch transactionally",
		slog.String("topic", topic),
		slog.Int("count", len(messages)))
	return nil
}

func (p *Producer) produceWithRetry(msg *kafka.Message) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = p.producer.Produce(msg, nil); err == nil {
			return nil
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	return err
}

func (p *Producer) abort(ctx context.Context, cause error) error {
	if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
		return fmt.Errorf("[KafkaClient] failed to abort transaction after %v: %w", cause, abortErr)
	}
	return cause
}

type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []Message) error
}

// ResultPublisher sends analysis results to the results topic keyed by
// comment id.
type ResultPublisher struct {
	producer batchPublisher
	topic    string
}

func NewResultPublisher(producer batchPublisher, topic string) *ResultPublisher {
	if topic == "" {
		topic = KAFKA_TOPIC_SENTIMENT_RESULTS
	}
	return &ResultPublisher{producer: producer, topic: topic}
}

func (rp *ResultPublisher) Publish(ctx context.Context, results []models.AnalysisResult) error {
	messages := make([]Message, 0, len(results))
	for _, r := range results {
		value, err := utils.SerializeToJSON(r)
		if err != nil {
			return err
		}
		key := r.ID
		if key == "" {
			key = uuid.NewString()
		}
		messages = append(messages, Message{Key: []byte(key), Value: value})
	}
	return rp.producer.PublishBatch(ctx, rp.topic, messages)
}
