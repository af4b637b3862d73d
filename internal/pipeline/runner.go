package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/sentimas/internal/connectors"
	"github.com/spacesedan/sentimas/internal/db"
	"github.com/spacesedan/sentimas/internal/models"
	"github.com/spacesedan/sentimas/internal/sentiment"
)

type Resolver interface {
	ForURL(target string) (connectors.Connector, error)
}

type Cleaner interface {
	Clean(text string) string
}

type Analyzer interface {
	Analyze(ctx context.Context, cleaned string) (models.ClassificationResult, error)
}

// Tracker remembers comment IDs that were already analyzed.
type Tracker interface {
	IsProcessed(ctx context.Context, source, id string) (bool, error)
	MarkProcessed(ctx context.Context, source, id string) error
}

// Publisher forwards the results of a run downstream.
type Publisher interface {
	Publish(ctx context.Context, results []models.AnalysisResult) error
}

type Runner struct {
	resolver  Resolver
	cleaner   Cleaner
	analyzer  Analyzer
	store     db.Store
	tracker   Tracker
	publisher Publisher
}

// Option configures the optional collaborators of a Runner.
type Option func(*Runner)

func WithTracker(t Tracker) Option { return func(r *Runner) { r.tracker = t } }

func WithPublisher(p Publisher) Option { return func(r *Runner) { r.publisher = p } }

func NewRunner(resolver Resolver, cleaner Cleaner, analyzer Analyzer, store db.Store, opts ...Option) *Runner {
	r := &Runner{resolver: resolver, cleaner: cleaner, analyzer: analyzer, store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type RunStats struct {
	Source   string
	Fetched  int
	Analyzed int
	Skipped  int
	Failed   int
}

// Run fetches up to count comments for target and analyzes them one at a
// time. A comment the classifier fails on is counted and skipped; a storage
// failure aborts the run.
func (r *Runner) Run(ctx context.Context, target string, count int) (RunStats, error) {
	var stats RunStats

	connector, err := r.resolver.ForURL(target)
	if err != nil {
		return stats, fmt.Errorf("resolving connector: %w", err)
	}
	stats.Source = connector.Source()

	slog.Info("[Runner] Fetching comments",
		slog.String("source", stats.Source),
		slog.String("target", target),
		slog.Int("count", count))

	start := time.Now()
	comments, err := connector.FetchComments(ctx, target, count)
	if err != nil {
		return stats, fmt.Errorf("fetching comments from %s: %w", stats.Source, err)
	}
	stats.Fetched = len(comments)

	if len(comments) == 0 {
		slog.Warn("[Runner] No content found", slog.String("source", stats.Source))
		return stats, nil
	}

	results := make([]models.AnalysisResult, 0, len(comments))
	for i, comment := range comments {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if strings.TrimSpace(comment.Text) == "" || r.seen(ctx, stats.Source, comment.ID) {
			stats.Skipped++
			continue
		}

		cleaned := r.cleaner.Clean(comment.Text)
		result, err := r.analyzer.Analyze(ctx, cleaned)
		if err != nil {
			var ce *sentiment.ClassificationError
			if errors.As(err, &ce) && ctx.Err() == nil {
				stats.Failed++
				slog.Warn("[Runner] Classification failed, skipping comment",
					slog.String("id", comment.ID),
					slog.String("error", err.Error()))
				continue
			}
			return stats, err
		}

		if _, err := r.store.Save(ctx, comment.Text, result, stats.Source); err != nil {
			return stats, fmt.Errorf("saving analysis: %w", err)
		}
		stats.Analyzed++

		if r.tracker != nil && comment.ID != "" {
			if err := r.tracker.MarkProcessed(ctx, stats.Source, comment.ID); err != nil {
				slog.Warn("[Runner] Failed to mark comment as processed",
					slog.String("id", comment.ID),
					slog.String("error", err.Error()))
			}
		}

		if comment.Source == "" {
			comment.Source = stats.Source
		}
		results = append(results, models.AnalysisResult{RawComment: comment, CleanedText: cleaned, Result: result})

		slog.Debug("[Runner] Item analyzed and saved",
			slog.Int("item", i+1),
			slog.Int("total", len(comments)),
			slog.String("sentiment", string(result.Sentiment)))
	}

	if r.publisher != nil && len(results) > 0 {
		if err := r.publisher.Publish(ctx, results); err != nil {
			slog.Warn("[Runner] Failed to publish results",
				slog.Int("count", len(results)),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Runner] Analysis complete",
		slog.String("source", stats.Source),
		slog.Int("fetched", stats.Fetched),
		slog.Int("analyzed", stats.Analyzed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
		slog.Duration("elapsed", time.Since(start)))

	return stats, nil
}

func (r *Runner) seen(ctx context.Context, source, id string) bool {
	if r.tracker == nil || id == "" {
		return false
	}
	processed, err := r.tracker.IsProcessed(ctx, source, id)
	if err != nil {
		slog.Warn("[Runner] Dedupe lookup failed, analyzing anyway",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return false
	}
	return processed
}
