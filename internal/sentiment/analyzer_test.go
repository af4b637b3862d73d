package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/sentimas/internal/models"
)

type mockCapability struct {
	scores []models.LabelScore
	err    error
	calls  atomic.Int32
}

func (m *mockCapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	m.calls.Add(1)
	return m.scores, m.err
}

func scoresOf(pos, neu, neg float64) []models.LabelScore {
	return []models.LabelScore{
		{Label: "POS", Score: pos},
		{Label: "NEU", Score: neu},
		{Label: "NEG", Score: neg},
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name           string
		scores         []models.LabelScore
		wantSentiment  models.Label
		wantConfidence float64
	}{
		{"positive passthrough", scoresOf(0.8, 0.15, 0.05), models.Positive, 0.8},
		{"negative passthrough", scoresOf(0.1, 0.2, 0.7), models.Negative, 0.7},
		{"confident neutral kept", scoresOf(0.2, 0.6, 0.2), models.Neutral, 0.6},
		{"weak neutral leans positive", scoresOf(0.3, 0.59, 0.11), models.Positive, 0.3},
		{"weak neutral leans negative", scoresOf(0.1, 0.5, 0.4), models.Negative, 0.4},
		{"weak neutral with polar tie goes negative", scoresOf(0.25, 0.5, 0.25), models.Negative, 0.25},
		{"lowercase labels", []models.LabelScore{{Label: "pos", Score: 0.9}, {Label: "neg", Score: 0.1}}, models.Positive, 0.9},
		{"missing labels count as zero", []models.LabelScore{{Label: "NEG", Score: 0.55}}, models.Negative, 0.55},
		{"argmax tie prefers POS over NEU", scoresOf(0.45, 0.45, 0.1), models.Positive, 0.45},
		{"NEU and NEG tie falls into the override", scoresOf(0.1, 0.45, 0.45), models.Negative, 0.45},
		{"argmax tie prefers POS over NEG", scoresOf(0.4, 0.2, 0.4), models.Positive, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capability := &mockCapability{scores: tt.scores}
			a, err := NewAnalyzer(capability)
			if err != nil {
				t.Fatal(err)
			}

			got, err := a.Analyze(context.Background(), "texto limpio")
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if got.Sentiment != tt.wantSentiment || got.Confidence != tt.wantConfidence {
				t.Errorf("got %s %.2f, want %s %.2f", got.Sentiment, got.Confidence, tt.wantSentiment, tt.wantConfidence)
			}

			want, _ := models.ScoresFromLabels(tt.scores)
			if got.DetailedScores != want {
				t.Errorf("DetailedScores = %+v, want raw %+v", got.DetailedScores, want)
			}
			if n := capability.calls.Load(); n != 1 {
				t.Errorf("capability called %d times", n)
			}
		})
	}
}

func TestAnalyzeEmptyInputSkipsCapability(t *testing.T) {
	capability := &mockCapability{scores: scoresOf(1, 0, 0)}
	a, _ := NewAnalyzer(capability)

	for _, in := range []string{"", "   ", "\n\t"} {
		got, err := a.Analyze(context.Background(), in)
		if err != nil {
			t.Fatalf("Analyze(%q): %v", in, err)
		}
		want := models.ClassificationResult{
			Sentiment:      models.Neutral,
			Confidence:     1.0,
			DetailedScores: models.ClassScores{NEU: 1.0},
		}
		if got != want {
			t.Errorf("Analyze(%q) = %+v", in, got)
		}
	}
	if n := capability.calls.Load(); n != 0 {
		t.Errorf("capability called %d times for empty input", n)
	}
}

func TestAnalyzeOverrideBoundary(t *testing.T) {
	for _, tt := range []struct {
		neu  float64
		want models.Label
	}{
		{0.59, models.Negative},
		{0.6, models.Neutral},
	} {
		a, _ := NewAnalyzer(&mockCapability{scores: scoresOf(0.1, tt.neu, 0.3)})
		got, err := a.Analyze(context.Background(), "algo")
		if err != nil {
			t.Fatal(err)
		}
		if got.Sentiment != tt.want {
			t.Errorf("NEU=%.2f: got %s, want %s", tt.neu, got.Sentiment, tt.want)
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	boom := errors.New("model exploded")

	t.Run("capability failure is wrapped", func(t *testing.T) {
		a, _ := NewAnalyzer(&mockCapability{err: boom})
		_, err := a.Analyze(context.Background(), "hola")
		var ce *ClassificationError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want *ClassificationError", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("cause lost: %v", err)
		}
	})

	t.Run("unknown label", func(t *testing.T) {
		a, _ := NewAnalyzer(&mockCapability{scores: []models.LabelScore{{Label: "LABEL_7", Score: 1}}})
		_, err := a.Analyze(context.Background(), "hola")
		var ce *ClassificationError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want *ClassificationError", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		capability := &mockCapability{scores: scoresOf(1, 0, 0)}
		a, _ := NewAnalyzer(capability)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := a.Analyze(ctx, "hola")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if capability.calls.Load() != 0 {
			t.Error("capability called with a cancelled context")
		}
	})

	t.Run("nil capability", func(t *testing.T) {
		_, err := NewAnalyzer(nil)
		var ie *InitializationError
		if !errors.As(err, &ie) {
			t.Fatalf("err = %v, want *InitializationError", err)
		}
	})
}

type serialCapability struct {
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *serialCapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)
	return scoresOf(0.7, 0.2, 0.1), nil
}

func TestAnalyzeSerializesCapabilityCalls(t *testing.T) {
	capability := &serialCapability{}
	a, _ := NewAnalyzer(capability)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Analyze(context.Background(), "me gustar"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if capability.overlap.Load() {
		t.Error("capability saw concurrent calls")
	}
}

type blockingCapability struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	b.entered <- struct{}{}
	<-b.release
	return scoresOf(0.7, 0.2, 0.1), nil
}

func TestAnalyzeWaitingCallerHonorsDeadline(t *testing.T) {
	capability := &blockingCapability{entered: make(chan struct{}), release: make(chan struct{})}
	a, _ := NewAnalyzer(capability)

	first := make(chan error, 1)
	go func() {
		_, err := a.Analyze(context.Background(), "me gustar")
		first <- err
	}()
	<-capability.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := a.Analyze(ctx, "otro comentario")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("waiting caller blocked for %v", elapsed)
	}

	var classErr *ClassificationError
	if !errors.As(err, &classErr) {
		t.Fatalf("expected ClassificationError, got %T: %v", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(capability.release)
	if err := <-first; err != nil {
		t.Errorf("first caller failed: %v", err)
	}
}

func TestClassificationResultWireFormat(t *testing.T) {
	a, _ := NewAnalyzer(&mockCapability{scores: scoresOf(0.7, 0.2, 0.1)})
	got, _ := a.Analyze(context.Background(), "genial")

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"sentimiento", "confianza", "scores_detallados"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	detail := decoded["scores_detallados"].(map[string]any)
	for _, key := range []string{"POS", "NEU", "NEG"} {
		if _, ok := detail[key]; !ok {
			t.Errorf("missing score %q in %s", key, raw)
		}
	}
}
