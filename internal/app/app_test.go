package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/models"
	"github.com/spacesedan/sentimas/internal/monitoring"
)

func TestNewCleanerAndAnalyzer(t *testing.T) {
	cleaner, err := NewCleaner(config.CleaningConfig{KeepHashtagText: true})
	if err != nil {
		t.Fatalf("NewCleaner: %v", err)
	}
	if got := cleaner.Clean("#Genial"); got != "genial" {
		t.Errorf("Clean(#Genial) = %q, want %q", got, "genial")
	}

	analyzer, closer, err := NewAnalyzer(config.SentimentConfig{Backend: "lexicon"})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	defer closer()

	result, err := analyzer.Analyze(context.Background(), "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Sentiment != models.Neutral || result.Confidence != 1.0 {
		t.Errorf("empty text result = %+v", result)
	}
}

func TestNewAnalyzerUnknownBackend(t *testing.T) {
	if _, _, err := NewAnalyzer(config.SentimentConfig{Backend: "magic"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewUnknownStorage(t *testing.T) {
	cfg := config.Config{
		Sentiment: config.SentimentConfig{Backend: "lexicon"},
		Storage:   config.StorageConfig{Backend: "sqlite"},
	}
	_, err := New(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("err = %v, want unknown storage backend", err)
	}
}

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) Save(ctx context.Context, original string, result models.ClassificationResult, source string) (models.AnalysisRecord, error) {
	return models.AnalysisRecord{}, nil
}

func (c *closeRecorder) ListAll(ctx context.Context) ([]models.AnalysisRecord, error) {
	return nil, nil
}

func (c *closeRecorder) Close() { c.closed++ }

func TestWithIndexer(t *testing.T) {
	original := loadAWSConfig
	t.Cleanup(func() { loadAWSConfig = original })
	loadAWSConfig = func(ctx context.Context, region string) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	t.Run("disabled returns store untouched", func(t *testing.T) {
		store := &closeRecorder{}
		a := &App{Monitor: monitoring.NewMonitor()}
		got, err := a.withIndexer(context.Background(), store)
		if err != nil || got != store || store.closed != 0 {
			t.Fatalf("got %v, %v, closed=%d", got, err, store.closed)
		}
	})

	t.Run("aws config failure closes store", func(t *testing.T) {
		store := &closeRecorder{}
		a := &App{Monitor: monitoring.NewMonitor()}
		a.Config.OpenSearch.Enabled = true
		a.Config.OpenSearch.Endpoint = "https://search.example.com"

		got, err := a.withIndexer(context.Background(), store)
		if err == nil || !strings.Contains(err.Error(), "no credentials") {
			t.Fatalf("err = %v, want aws config error", err)
		}
		if got != nil {
			t.Errorf("store returned on error: %v", got)
		}
		if store.closed != 1 {
			t.Errorf("closed = %d, want 1", store.closed)
		}
	})
}
