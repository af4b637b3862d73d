package db

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/sentimas/internal/models"
)

// Store persists analyses and lists them back, most recent first.
type Store interface {
	Save(ctx context.Context, original string, result models.ClassificationResult, source string) (models.AnalysisRecord, error)
	ListAll(ctx context.Context) ([]models.AnalysisRecord, error)
	Close()
}

// BatchStore is implemented by stores that can write many records in one
// round trip. The streaming consumer prefers it when available.
type BatchStore interface {
	Store
	SaveBatch(ctx context.Context, records []models.AnalysisRecord) error
}

var now = func() time.Time { return time.Now().UTC() }

// NewRecord stamps a classification with a fresh id and the current time.
func NewRecord(original string, result models.ClassificationResult, source string) models.AnalysisRecord {
	return models.AnalysisRecord{
		ID:           uuid.NewString(),
		Source:       source,
		OriginalText: original,
		Sentiment:    result.Sentiment,
		Confidence:   result.Confidence,
		Scores:       result.DetailedScores,
		AnalyzedAt:   now(),
	}
}

// recordNamespace scopes ids derived from platform comment ids.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/spacesedan/sentimas/analisis"))

// NewCommentRecord is NewRecord with an id derived from the platform comment
// id, so storing the same comment twice writes the same row. Comments without
// an id get a random one.
func NewCommentRecord(commentID string, original string, result models.ClassificationResult, source string) models.AnalysisRecord {
	record := NewRecord(original, result, source)
	if commentID != "" {
		record.ID = uuid.NewSHA1(recordNamespace, []byte(source+"/"+commentID)).String()
	}
	return record
}

// Indexer mirrors saved records to a secondary search store.
type Indexer interface {
	IndexAnalysis(ctx context.Context, record models.AnalysisRecord) error
}

// IndexedStore writes through to Store and then mirrors the record to an
// Indexer. Mirror failures are logged, never returned.
type IndexedStore struct {
	Store
	indexer Indexer
}

func NewIndexedStore(store Store, indexer Indexer) *IndexedStore {
	return &IndexedStore{Store: store, indexer: indexer}
}

func (s *IndexedStore) Save(ctx context.Context, original string, result models.ClassificationResult, source string) (models.AnalysisRecord, error) {
	record, err := s.Store.Save(ctx, original, result, source)
	if err != nil {
		return record, err
	}
	if err := s.indexer.IndexAnalysis(ctx, record); err != nil {
		slog.Warn("[IndexedStore] Failed to mirror record",
			slog.String("id", record.ID),
			slog.String("error", err.Error()))
	}
	return record, nil
}

// Summarize computes the dashboard figures over records.
func Summarize(records []models.AnalysisRecord) models.Summary {
	summary := models.Summary{
		Total:       len(records),
		Counts:      make(map[models.Label]int, len(models.Labels)),
		Percentages: make(map[models.Label]float64, len(models.Labels)),
		PerDay:      make(map[string]map[models.Label]int),
		BySource:    make(map[string]map[models.Label]int),
	}
	for _, l := range models.Labels {
		summary.Counts[l] = 0
		summary.Percentages[l] = 0
	}

	for _, r := range records {
		summary.Counts[r.Sentiment]++

		day := r.AnalyzedAt.Format(time.DateOnly)
		if summary.PerDay[day] == nil {
			summary.PerDay[day] = make(map[models.Label]int)
		}
		summary.PerDay[day][r.Sentiment]++

		if summary.BySource[r.Source] == nil {
			summary.BySource[r.Source] = make(map[models.Label]int)
		}
		summary.BySource[r.Source][r.Sentiment]++
	}

	if summary.Total > 0 {
		for l, n := range summary.Counts {
			pct := float64(n) / float64(summary.Total) * 100
			summary.Percentages[l] = math.Round(pct*100) / 100
		}
	}
	return summary
}
