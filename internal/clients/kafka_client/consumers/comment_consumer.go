package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client"
	kafkautils "github.com/spacesedan/sentimas/internal/clients/kafka_client/utils"
	"github.com/spacesedan/sentimas/internal/db"
	"github.com/spacesedan/sentimas/internal/models"
	"github.com/spacesedan/sentimas/internal/pipeline"
	"github.com/spacesedan/sentimas/internal/sentiment"
	"github.com/spacesedan/sentimas/internal/utils"
)

const (
	publishRetries        = 3
	shutdownFlushAttempts = 3
)

type analyzedComment struct {
	result models.AnalysisResult
	record models.AnalysisRecord
	stored bool
}

// CommentProcessor analyzes raw comments read from Kafka and buffers them
// until Flush stores and publishes the batch.
type CommentProcessor struct {
	cleaner   pipeline.Cleaner
	analyzer  pipeline.Analyzer
	store     db.Store
	publisher pipeline.Publisher
	buffer    *utils.BatchBuffer[analyzedComment]
	failed    []analyzedComment
	backoff   time.Duration
}

func NewCommentProcessor(cleaner pipeline.Cleaner, analyzer pipeline.Analyzer, store db.Store, publisher pipeline.Publisher, batchSize int) *CommentProcessor {
	return &CommentProcessor{
		cleaner:   cleaner,
		analyzer:  analyzer,
		store:     store,
		publisher: publisher,
		buffer:    utils.NewBatchBuffer[analyzedComment](batchSize),
		backoff:   kafka_client.RETRY_DELAY,
	}
}

// Handle decodes one message value and buffers every comment it could
// classify. It returns how many comments were buffered.
func (p *CommentProcessor) Handle(ctx context.Context, value []byte) (int, error) {
	comments, err := kafkautils.DeserializeComments(value)
	if err != nil {
		return 0, fmt.Errorf("[CommentConsumer] decoding message: %w", err)
	}

	buffered := 0
	for _, comment := range comments {
		if strings.TrimSpace(comment.Text) == "" {
			continue
		}
		if comment.Source == "" {
			comment.Source = models.SourceAPI
		}

		cleaned := p.cleaner.Clean(comment.Text)
		result, err := p.analyzer.Analyze(ctx, cleaned)
		if err != nil {
			var ce *sentiment.ClassificationError
			if errors.As(err, &ce) && ctx.Err() == nil {
				slog.Warn("[CommentConsumer] Classification failed, skipping comment",
					slog.String("id", comment.ID),
					slog.String("error", err.Error()))
				continue
			}
			return buffered, err
		}

		p.buffer.Add(analyzedComment{
			result: models.AnalysisResult{RawComment: comment, CleanedText: cleaned, Result: result},
			record: db.NewCommentRecord(comment.ID, comment.Text, result, comment.Source),
		})
		buffered++
	}
	return buffered, nil
}

func (p *CommentProcessor) Full() bool { return p.buffer.Full() }

// Flush stores the buffered analyses and publishes them. When storage fails
// the batch is kept and the next Flush retries it before anything newer.
// Publishing is best-effort once the batch is stored.
func (p *CommentProcessor) Flush(ctx context.Context) error {
	batch := p.failed
	p.failed = nil
	if batch == nil {
		if !p.buffer.HasData() {
			return nil
		}
		p.buffer.LogBatchProcessing("analysis")
		batch = p.buffer.GetAndClear()
	}

	if err := p.save(ctx, batch); err != nil {
		p.failed = batch
		return err
	}

	if p.publisher == nil {
		return nil
	}
	results := make([]models.AnalysisResult, len(batch))
	for i, item := range batch {
		results[i] = item.result
	}

	for i := 0; i < publishRetries; i++ {
		err := p.publisher.Publish(ctx, results)
		if err == nil {
			return nil
		}
		slog.Warn("[CommentConsumer] Failed to publish results, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.backoff):
		}
	}
	slog.Error("[CommentConsumer] Giving up publishing stored results",
		slog.Int("count", len(results)))
	return nil
}

// save writes the batch. Items already stored by an earlier attempt are
// skipped so a retried batch does not duplicate rows.
func (p *CommentProcessor) save(ctx context.Context, batch []analyzedComment) error {
	if bs, ok := p.store.(db.BatchStore); ok {
		// the same comment can arrive twice in one batch; write it once
		seen := make(map[string]struct{}, len(batch))
		records := make([]models.AnalysisRecord, 0, len(batch))
		for _, item := range batch {
			if _, dup := seen[item.record.ID]; dup {
				continue
			}
			seen[item.record.ID] = struct{}{}
			records = append(records, item.record)
		}
		if err := bs.SaveBatch(ctx, records); err != nil {
			return fmt.Errorf("[CommentConsumer] saving batch: %w", err)
		}
		return nil
	}

	for i := range batch {
		if batch[i].stored {
			continue
		}
		r := batch[i].record
		if _, err := p.store.Save(ctx, r.OriginalText, batch[i].result.Result, r.Source); err != nil {
			return fmt.Errorf("[CommentConsumer] saving analysis: %w", err)
		}
		batch[i].stored = true
	}
	return nil
}

type messageSource interface {
	Next() (*kafka.Message, error)
}

type messageCommitter interface {
	Commit(ctx context.Context, msg *kafka.Message) error
}

func StartCommentConsumer(ctx context.Context, consumer *kafka.Consumer, proc *CommentProcessor) error {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(consumer)
	return consumeLoop(ctx, iterator, committer, proc, kafka_client.BATCH_TIMEOUT)
}

func consumeLoop(ctx context.Context, iterator messageSource, committer messageCommitter, proc *CommentProcessor, interval time.Duration) error {
	slog.Info("[CommentConsumer] Listening for messages...")

	tracker := kafkautils.NewOffsetTracker()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// flush stores the pending batch and commits the offsets behind it. A
	// storage failure is retried with backoff until it succeeds, attempts run
	// out or ctx ends; reading stops meanwhile so nothing past the failed
	// batch is ever committed.
	flush := func(ctx context.Context, attempts int) bool {
		for attempt := 1; ; attempt++ {
			err := proc.Flush(ctx)
			if err == nil {
				break
			}
			slog.Error("[CommentConsumer] Failed to flush batch, offsets left uncommitted",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			if attempts > 0 && attempt >= attempts {
				return false
			}
			select {
			case <-ctx.Done():
				return false
			case <-time.After(proc.backoff):
			}
		}
		for _, msg := range tracker.Drain() {
			if err := committer.Commit(ctx, msg); err != nil {
				slog.Error("[CommentConsumer] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
		return true
	}

	shutdown := func() error {
		slog.Warn("[CommentConsumer] Stopping consumer...")
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if !flush(flushCtx, shutdownFlushAttempts) {
			slog.Warn("[CommentConsumer] Unstored batch will be redelivered on restart")
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return shutdown()
		case <-ticker.C:
			flush(ctx, 0)
		default:
			msg, err := iterator.Next()
			if errors.Is(err, kafka_client.ErrNoMessage) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return shutdown()
				}
				kafkautils.HandleConsumerError(err)
				return err
			}

			if _, err := proc.Handle(ctx, msg.Value); err != nil {
				if ctx.Err() != nil {
					return shutdown()
				}
				// skipped so a bad message doesn't block the partition
				kafkautils.HandleConsumerError(err)
			}
			tracker.Track(msg)

			if proc.Full() {
				flush(ctx, 0)
			}
		}
	}
}
