package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spacesedan/sentimas/internal/connectors"
	"github.com/spacesedan/sentimas/internal/models"
	"github.com/spacesedan/sentimas/internal/sentiment"
)

type fakeConnector struct {
	comments []models.RawComment
	err      error
}

func (f *fakeConnector) Source() string { return models.SourceYouTube }

func (f *fakeConnector) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	return f.comments, f.err
}

type fakeResolver struct {
	c   connectors.Connector
	err error
}

func (f fakeResolver) ForURL(string) (connectors.Connector, error) { return f.c, f.err }

type lowerCleaner struct{}

func (lowerCleaner) Clean(text string) string { return strings.ToLower(text) }

type fakeAnalyzer struct {
	failOn string
}

func (f fakeAnalyzer) Analyze(ctx context.Context, cleaned string) (models.ClassificationResult, error) {
	if cleaned == f.failOn {
		return models.ClassificationResult{}, &sentiment.ClassificationError{Err: errors.New("boom")}
	}
	return models.ClassificationResult{Sentiment: models.Positive, Confidence: 0.9}, nil
}

type fakeStore struct {
	saved []string
	err   error
}

func (s *fakeStore) Save(ctx context.Context, original string, result models.ClassificationResult, source string) (models.AnalysisRecord, error) {
	if s.err != nil {
		return models.AnalysisRecord{}, s.err
	}
	s.saved = append(s.saved, original)
	return models.AnalysisRecord{OriginalText: original, Source: source}, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]models.AnalysisRecord, error) { return nil, nil }

func (s *fakeStore) Close() {}

type memTracker struct {
	seen map[string]bool
}

func (m *memTracker) IsProcessed(ctx context.Context, source, id string) (bool, error) {
	return m.seen[source+"/"+id], nil
}

func (m *memTracker) MarkProcessed(ctx context.Context, source, id string) error {
	m.seen[source+"/"+id] = true
	return nil
}

type fakePublisher struct {
	published []models.AnalysisResult
}

func (p *fakePublisher) Publish(ctx context.Context, results []models.AnalysisResult) error {
	p.published = append(p.published, results...)
	return nil
}

func comments(texts ...string) []models.RawComment {
	out := make([]models.RawComment, len(texts))
	for i, t := range texts {
		out[i] = models.RawComment{ID: string(rune('a' + i)), Text: t}
	}
	return out
}

func TestRun(t *testing.T) {
	conn := &fakeConnector{comments: comments("Genial", "   ", "FALLA", "Bien")}
	store := &fakeStore{}
	pub := &fakePublisher{}
	r := NewRunner(fakeResolver{c: conn}, lowerCleaner{}, fakeAnalyzer{failOn: "falla"}, store, WithPublisher(pub))

	stats, err := r.Run(context.Background(), "https://youtu.be/x", 10)
	if err != nil {
		t.Fatal(err)
	}
	want := RunStats{Source: models.SourceYouTube, Fetched: 4, Analyzed: 2, Skipped: 1, Failed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if len(store.saved) != 2 || store.saved[0] != "Genial" {
		t.Errorf("saved = %q", store.saved)
	}
	if len(pub.published) != 2 || pub.published[0].CleanedText != "genial" || pub.published[0].Source != models.SourceYouTube {
		t.Errorf("published = %+v", pub.published)
	}
}

func TestRunSkipsProcessedComments(t *testing.T) {
	conn := &fakeConnector{comments: comments("uno", "dos")}
	tracker := &memTracker{seen: map[string]bool{}}
	store := &fakeStore{}
	r := NewRunner(fakeResolver{c: conn}, lowerCleaner{}, fakeAnalyzer{}, store, WithTracker(tracker))

	if _, err := r.Run(context.Background(), "x", 10); err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background(), "x", 10)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 2 || stats.Analyzed != 0 {
		t.Errorf("second run stats = %+v", stats)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d times", len(store.saved))
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("storage failure aborts", func(t *testing.T) {
		r := NewRunner(fakeResolver{c: &fakeConnector{comments: comments("uno", "dos")}}, lowerCleaner{}, fakeAnalyzer{}, &fakeStore{err: errors.New("db down")})
		stats, err := r.Run(context.Background(), "x", 10)
		if err == nil {
			t.Fatal("expected error")
		}
		if stats.Analyzed != 0 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		r := NewRunner(fakeResolver{c: &fakeConnector{err: errors.New("quota")}}, lowerCleaner{}, fakeAnalyzer{}, &fakeStore{})
		if _, err := r.Run(context.Background(), "x", 10); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("no connector", func(t *testing.T) {
		r := NewRunner(fakeResolver{err: connectors.ErrUnsupportedTarget}, lowerCleaner{}, fakeAnalyzer{}, &fakeStore{})
		if _, err := r.Run(context.Background(), "https://example.com", 10); !errors.Is(err, connectors.ErrUnsupportedTarget) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := NewRunner(fakeResolver{c: &fakeConnector{comments: comments("uno")}}, lowerCleaner{}, fakeAnalyzer{}, &fakeStore{})
		if _, err := r.Run(ctx, "x", 10); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	})
}
