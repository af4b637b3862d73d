package kafka_client

import "time"

const (
	KAFKA_TOPIC_RAW_COMMENTS      = "raw-comments"      // comments waiting for analysis
	KAFKA_TOPIC_SENTIMENT_RESULTS = "sentiment-results" // analyzed comments
)

const (
	BATCH_SIZE    = 50
	BATCH_TIMEOUT = 5 * time.Second
	MAX_RETRIES   = 5
	RETRY_DELAY   = 2 * time.Second
	POLL_TIMEOUT  = 500 * time.Millisecond
)
