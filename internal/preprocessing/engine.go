package preprocessing

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/kljensen/snowball"
)

//go:embed data/lemmas_es.tsv
var lemmaData []byte

var ErrEngineUnavailable = errors.New("linguistic engine unavailable")

// Engine is the tokenizer / stopword list / lemmatizer the Cleaner relies on.
// Implementations must be safe for concurrent use.
type Engine interface {
	Tokenize(text string) []string
	// IsStopword reports membership in the engine's base stopword list,
	// before any exceptions are applied.
	IsStopword(token string) bool
	// Lemma returns the dictionary base form of token, or false when the
	// engine knows none.
	Lemma(token string) (string, bool)
}

// SpanishEngine is the default Engine: whitespace tokenization, the Spanish
// stopword list of github.com/bbalet/stopwords and an embedded form->lemma
// dictionary, optionally backed by the Snowball Spanish stemmer.
type SpanishEngine struct {
	lemmas       map[string]string
	stemFallback bool
}

// NewSpanishEngine parses the embedded lemma dictionary. With stemFallback set,
// tokens missing from the dictionary are reduced to their Snowball stem.
func NewSpanishEngine(stemFallback bool) (*SpanishEngine, error) {
	lemmas, err := parseLemmas(lemmaData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	return &SpanishEngine{lemmas: lemmas, stemFallback: stemFallback}, nil
}

func (e *SpanishEngine) Tokenize(text string) []string {
	return strings.Fields(text)
}

func (e *SpanishEngine) IsStopword(token string) bool {
	if token == "" {
		return false
	}
	// bbalet/stopwords does not export its lists; a token is a stopword when
	// cleaning it on its own leaves nothing behind.
	return strings.TrimSpace(stopwords.CleanString(token, "es", false)) == ""
}

func (e *SpanishEngine) Lemma(token string) (string, bool) {
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	if lemma, ok := e.lemmas[token]; ok {
		return lemma, true
	}
	if !e.stemFallback {
		return "", false
	}
	stem, err := snowball.Stem(token, "spanish", false)
	if err != nil || stem == "" {
		return "", false
	}
	return stem, true
}

func parseLemmas(data []byte) (map[string]string, error) {
	lemmas := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		form, lemma, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("lemma dictionary line %d: missing tab separator", line)
		}
		form, lemma = strings.TrimSpace(form), strings.TrimSpace(lemma)
		if form == "" || lemma == "" {
			return nil, fmt.Errorf("lemma dictionary line %d: empty field", line)
		}
		lemmas[form] = lemma
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lemma dictionary: %w", err)
	}
	return lemmas, nil
}
