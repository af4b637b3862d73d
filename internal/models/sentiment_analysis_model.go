package models

import (
	"fmt"
	"strings"
)

type Label string

const (
	Positive Label = "POS"
	Neutral  Label = "NEU"
	Negative Label = "NEG"
)

// Labels lists every class in precedence order. Argmax ties resolve to the
// earliest label in this slice.
var Labels = []Label{Positive, Neutral, Negative}

// ParseLabel normalizes a classifier label to one of the three classes.
func ParseLabel(raw string) (Label, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "POS", "POSITIVE", "POSITIVO":
		return Positive, nil
	case "NEU", "NEUTRAL", "NEUTRO":
		return Neutral, nil
	case "NEG", "NEGATIVE", "NEGATIVO":
		return Negative, nil
	}
	return "", fmt.Errorf("unknown sentiment label %q", raw)
}

// LabelScore is one entry of a classifier's raw output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassScores holds the confidence of each class. All three are always present.
type ClassScores struct {
	POS float64 `json:"POS"`
	NEU float64 `json:"NEU"`
	NEG float64 `json:"NEG"`
}

func (s ClassScores) Get(l Label) float64 {
	switch l {
	case Positive:
		return s.POS
	case Neutral:
		return s.NEU
	case Negative:
		return s.NEG
	}
	return 0
}

func (s *ClassScores) set(l Label, v float64) {
	switch l {
	case Positive:
		s.POS = v
	case Neutral:
		s.NEU = v
	case Negative:
		s.NEG = v
	}
}

// Top returns the label with the highest score, ties going to the label that
// comes first in Labels.
func (s ClassScores) Top() (Label, float64) {
	best := Labels[0]
	bestScore := s.Get(best)
	for _, l := range Labels[1:] {
		if v := s.Get(l); v > bestScore {
			best, bestScore = l, v
		}
	}
	return best, bestScore
}

// ScoresFromLabels folds raw classifier entries into the fixed three-class
// shape. Missing classes stay at 0.0; an unrecognized label is an error.
func ScoresFromLabels(entries []LabelScore) (ClassScores, error) {
	var scores ClassScores
	for _, e := range entries {
		l, err := ParseLabel(e.Label)
		if err != nil {
			return ClassScores{}, err
		}
		scores.set(l, e.Score)
	}
	return scores, nil
}

type ClassificationResult struct {
	Sentiment      Label       `json:"sentimiento"`
	Confidence     float64     `json:"confianza"`
	DetailedScores ClassScores `json:"scores_detallados"`
}

// AnalysisResult is what the streaming consumer publishes for every comment.
type AnalysisResult struct {
	RawComment
	CleanedText string               `json:"texto_limpio"`
	Result      ClassificationResult `json:"resultado"`
}
