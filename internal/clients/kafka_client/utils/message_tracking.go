package utils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type partitionKey struct {
	topic     string
	partition int32
}

// OffsetTracker keeps the highest-offset message seen per partition since the
// last Drain. Committing those messages acknowledges everything before them.
type OffsetTracker struct {
	mu     sync.Mutex
	latest map[partitionKey]*kafka.Message
}

func NewOffsetTracker() *OffsetTracker {
	return &OffsetTracker{latest: make(map[partitionKey]*kafka.Message)}
}

func (t *OffsetTracker) Track(msg *kafka.Message) {
	if msg == nil {
		return
	}
	key := partitionKey{partition: msg.TopicPartition.Partition}
	if msg.TopicPartition.Topic != nil {
		key.topic = *msg.TopicPartition.Topic
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.latest[key]; !ok || msg.TopicPartition.Offset > cur.TopicPartition.Offset {
		t.latest[key] = msg
	}
}

func (t *OffsetTracker) Drain() []*kafka.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	msgs := make([]*kafka.Message, 0, len(t.latest))
	for _, m := range t.latest {
		msgs = append(msgs, m)
	}
	t.latest = make(map[partitionKey]*kafka.Message)
	return msgs
}
