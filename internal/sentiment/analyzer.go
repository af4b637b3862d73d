package sentiment

import (
	"context"
	"errors"
	"strings"

	"github.com/spacesedan/sentimas/internal/models"
)

// neutralThreshold is the confidence under which a neutral verdict is replaced
// by the stronger of the two polar scores.
const neutralThreshold = 0.6

var errNilCapability = errors.New("capability is nil")

// Analyzer turns cleaned text into a ClassificationResult. One Analyzer wraps
// one capability instance; calls into it are serialized. A caller waiting for
// its turn gives up when its context ends.
type Analyzer struct {
	capability Capability
	sem        chan struct{}
}

func NewAnalyzer(capability Capability) (*Analyzer, error) {
	if capability == nil {
		return nil, &InitializationError{Err: errNilCapability}
	}
	return &Analyzer{capability: capability, sem: make(chan struct{}, 1)}, nil
}

// Analyze classifies already cleaned text. Empty text is neutral with full
// confidence and never reaches the capability.
func (a *Analyzer) Analyze(ctx context.Context, cleaned string) (models.ClassificationResult, error) {
	if strings.TrimSpace(cleaned) == "" {
		return models.ClassificationResult{
			Sentiment:      models.Neutral,
			Confidence:     1.0,
			DetailedScores: models.ClassScores{NEU: 1.0},
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return models.ClassificationResult{}, &ClassificationError{Err: err}
	}

	raw, err := a.classify(ctx, cleaned)
	if err != nil {
		return models.ClassificationResult{}, &ClassificationError{Err: err}
	}

	scores, err := models.ScoresFromLabels(raw)
	if err != nil {
		return models.ClassificationResult{}, &ClassificationError{Err: err}
	}

	return decide(scores), nil
}

func (a *Analyzer) classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	select {
	case a.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.sem }()
	return a.capability.Classify(ctx, text)
}

func decide(scores models.ClassScores) models.ClassificationResult {
	label, confidence := scores.Top()

	if label == models.Neutral && confidence < neutralThreshold {
		// exact POS/NEG ties resolve to NEG
		if scores.POS > scores.NEG {
			label, confidence = models.Positive, scores.POS
		} else {
			label, confidence = models.Negative, scores.NEG
		}
	}

	return models.ClassificationResult{
		Sentiment:      label,
		Confidence:     confidence,
		DetailedScores: scores,
	}
}
