package sentiment

import (
	"context"
	"strings"

	"github.com/spacesedan/sentimas/internal/models"
)

// maxInputWords bounds what is handed to a model. Fine-tuned BERT-style
// classifiers accept 512 sub-word tokens; Spanish averages well under two
// tokens per word.
const maxInputWords = 256

// Capability is a pre-trained three-class classifier. It returns one score per
// label it knows; labels missing from the answer count as zero.
type Capability interface {
	Classify(ctx context.Context, text string) ([]models.LabelScore, error)
}

// CapabilityFunc adapts a plain function to Capability.
type CapabilityFunc func(ctx context.Context, text string) ([]models.LabelScore, error)

func (f CapabilityFunc) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	return f(ctx, text)
}

func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}
