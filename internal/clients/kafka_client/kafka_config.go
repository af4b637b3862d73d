package kafka_client

import (
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentimas/config"
)

type KafkaConfig struct {
	Broker          string
	GroupID         string
	TransactionalID string
	RawTopic        string
	ResultsTopic    string
}

func NewKafkaConfig(cfg config.KafkaConfig) KafkaConfig {
	kc := KafkaConfig{
		Broker:          cfg.Broker,
		GroupID:         cfg.GroupID,
		TransactionalID: cfg.TransactionID,
		RawTopic:        cfg.RawTopic,
		ResultsTopic:    cfg.ResultsTopic,
	}
	if kc.RawTopic == "" {
		kc.RawTopic = KAFKA_TOPIC_RAW_COMMENTS
	}
	if kc.ResultsTopic == "" {
		kc.ResultsTopic = KAFKA_TOPIC_SENTIMENT_RESULTS
	}
	return kc
}

// consumerConfigMap reads only committed transactional data and leaves
// offset commits to the consumer after results are stored.
func (c KafkaConfig) consumerConfigMap() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":  c.Broker,
		"group.id":           c.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
	}
}

func (c KafkaConfig) producerConfigMap() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":                     c.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      c.TransactionalID,
	}
}
