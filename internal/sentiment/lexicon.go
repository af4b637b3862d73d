package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
	"github.com/spacesedan/sentimas/internal/models"
)

// LexiconCapability scores text with the VADER lexicon. It needs no model
// files and serves as the offline fallback backend. The lexicon is English:
// most cleaned Spanish text scores fully neutral, so it is only fit for smoke
// tests without network or model files.
type LexiconCapability struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewLexiconCapability() *LexiconCapability {
	return &LexiconCapability{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Classify maps VADER's positive/neutral/negative proportions onto the three
// classes. They already sum to one.
func (l *LexiconCapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	polarity := l.analyzer.PolarityScores(text)
	return []models.LabelScore{
		{Label: string(models.Positive), Score: polarity.Positive},
		{Label: string(models.Neutral), Score: polarity.Neutral},
		{Label: string(models.Negative), Score: polarity.Negative},
	}, nil
}
