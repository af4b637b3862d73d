package preprocessing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// preservedWords are dropped by generic Spanish stopword lists but carry the
// polarity of a comment, so they are never filtered.
var preservedWords = map[string]struct{}{
	"sin":         {},
	"no":          {},
	"ni":          {},
	"nunca":       {},
	"tampoco":     {},
	"falta":       {},
	"problema":    {},
	"bien":        {},
	"bueno":       {},
	"buena":       {},
	"más o menos": {},
}

// IsPreserved reports whether word is exempt from stopword removal.
func IsPreserved(word string) bool {
	_, ok := preservedWords[word]
	return ok
}

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s\p{Z}]+|www\.[^\s\p{Z}]+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{M}\p{N}_]+`)
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{M}\p{N}_]+)`)
)

type Options struct {
	// KeepHashtagText strips only the '#' of a hashtag instead of the whole tag.
	KeepHashtagText bool
}

// Cleaner normalizes Spanish social-media text before classification. It is
// immutable once built and safe for concurrent use.
type Cleaner struct {
	engine Engine
	opts   Options
}

func NewCleaner(engine Engine, opts Options) (*Cleaner, error) {
	if engine == nil {
		return nil, fmt.Errorf("preprocessing: %w", ErrEngineUnavailable)
	}
	return &Cleaner{engine: engine, opts: opts}, nil
}

// Clean runs the full pipeline. The stage order is part of the contract:
// emoji words must exist before the letter filter, and stopwords are removed
// before lemmatization so that inflected stopwords are caught.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}
	text = c.toLower(text)
	text = c.removeURLs(text)
	text = c.removeMentionsAndHashtags(text)
	text = c.translateEmojis(text)
	text = c.removePunctuationAndDigits(text)
	text = c.removeStopwords(text)
	text = c.lemmatize(text)
	return strings.Join(strings.Fields(text), " ")
}

func (c *Cleaner) toLower(text string) string {
	// cases.Caser keeps state between calls, so one is built per call.
	return cases.Lower(language.Spanish).String(norm.NFC.String(text))
}

func (c *Cleaner) removeURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

func (c *Cleaner) removeMentionsAndHashtags(text string) string {
	text = mentionPattern.ReplaceAllString(text, "")
	if c.opts.KeepHashtagText {
		return hashtagPattern.ReplaceAllString(text, "$1")
	}
	return hashtagPattern.ReplaceAllString(text, "")
}

func (c *Cleaner) translateEmojis(text string) string {
	for _, e := range emojiLexicon {
		text = strings.ReplaceAll(text, e.glyph, " "+e.word+" ")
	}
	return strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, text)
}

func (c *Cleaner) removePunctuationAndDigits(text string) string {
	return strings.Map(func(r rune) rune {
		if isSpanishLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

func isSpanishLetter(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	switch r {
	case 'á', 'é', 'í', 'ó', 'ú', 'ü', 'ñ':
		return true
	}
	return false
}

func (c *Cleaner) removeStopwords(text string) string {
	tokens := c.engine.Tokenize(text)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if c.isStopword(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func (c *Cleaner) isStopword(token string) bool {
	if IsPreserved(token) {
		return false
	}
	return c.engine.IsStopword(token)
}

func (c *Cleaner) lemmatize(text string) string {
	tokens := c.engine.Tokenize(text)
	lemmas := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		if lemma, ok := c.engine.Lemma(tok); ok && lemma != "" {
			lemmas = append(lemmas, lemma)
			continue
		}
		lemmas = append(lemmas, tok)
	}
	return strings.Join(lemmas, " ")
}
