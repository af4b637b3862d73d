package preprocessing

import (
	"strings"
	"testing"
)

// stubEngine is a deterministic engine for pipeline tests.
type stubEngine struct {
	stop   map[string]bool
	lemmas map[string]string
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		stop: map[string]bool{
			"de": true, "el": true, "la": true, "me": true, "que": true,
			"no": true, "sin": true, "bien": true, "y": true,
		},
		lemmas: map[string]string{
			"gusta":      "gustar",
			"encanta":    "encantar",
			"recomiendo": "recomendar",
			"productos":  "producto",
		},
	}
}

func (s *stubEngine) Tokenize(text string) []string { return strings.Fields(text) }
func (s *stubEngine) IsStopword(tok string) bool    { return s.stop[tok] }
func (s *stubEngine) Lemma(tok string) (string, bool) {
	l, ok := s.lemmas[tok]
	return l, ok
}

func newTestCleaner(t *testing.T, opts Options) *Cleaner {
	t.Helper()
	c, err := NewCleaner(newStubEngine(), opts)
	if err != nil {
		t.Fatalf("NewCleaner: %v", err)
	}
	return c
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n ", ""},
		{"lowercases and lemmatizes", "Me GUSTA el Producto", "gustar producto"},
		{"accented capitals", "ÉXITO TOTAL ÑANDÚ", "éxito total ñandú"},
		{"strips urls", "mira https://example.com/a?b=1 y www.tienda.es/x ahora", "mira ahora"},
		{"strips mentions", "@usuario_1 hola @otro", "hola"},
		{"strips hashtags", "genial #oferta2024 #Rebajas", "genial"},
		{"maps known emoji", "me encanta 😍😍", "encantar amor amor"},
		{"drops unknown emoji", "regular 🤡🚀", "regular"},
		{"emoji does not glue to words", "genial😂producto", "genial risa producto"},
		{"heart with variation selector", "te quiero ❤️", "te quiero corazon"},
		{"bare heart is stripped", "te quiero ❤", "te quiero"},
		{"underscore of emoji word is removed", "👍", "pulgararriba"},
		{"punctuation and digits", "¡¡¡Qué 100% genial!!! (5 estrellas)...", "qué genial estrellas"},
		{"keeps negations", "no me gusta sin descuento", "no gustar sin descuento"},
		{"keeps sentiment words", "bien de precio", "bien precio"},
		{"only removable content", "https://x.co @a #b 😡 !!! 123", ""},
		{"collapses whitespace", "  hola     mundo  ", "hola mundo"},
		{"decomposed accents survive", "cafe\u0301 rico", "café rico"},
		{"invalid utf8 is dropped", "hola\xff\xfe mundo", "hola mundo"},
	}

	c := newTestCleaner(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanKeepHashtagText(t *testing.T) {
	c := newTestCleaner(t, Options{KeepHashtagText: true})
	got := c.Clean("me encanta #Verano2024 @tienda")
	if got != "encantar verano" {
		t.Errorf("got %q, want %q", got, "encantar verano")
	}
}

func TestCleanRisaExample(t *testing.T) {
	c := newTestCleaner(t, Options{})
	if got := c.Clean("http://x.com @u #h 😂"); got != "risa" {
		t.Errorf("got %q, want %q", got, "risa")
	}
}

func TestCleanIsIdempotentOnCleanInput(t *testing.T) {
	c := newTestCleaner(t, Options{})
	inputs := []string{
		"producto excelente",
		"gustar mucho servicio",
		"no funciona nada",
		"risa amor corazon",
		"",
	}
	for _, in := range inputs {
		once := c.Clean(in)
		if twice := c.Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCleanIsTotal(t *testing.T) {
	c := newTestCleaner(t, Options{})
	long := strings.Repeat("¡Hola! 😂 https://x.com/abc @user #tag 123 ", 400)
	if len(long) < 10000 {
		t.Fatalf("test input too short: %d", len(long))
	}
	inputs := []string{
		long,
		"😂😂😂🤡🚀🇪🇸",
		"!!!???...,,,;;;",
		"\x00\x01\x02",
		string([]byte{0xc3, 0x28}),
	}
	for _, in := range inputs {
		got := c.Clean(in)
		for _, r := range got {
			if !isSpanishLetter(r) && r != ' ' {
				t.Errorf("Clean output %q contains disallowed rune %q", got, r)
				break
			}
		}
	}
}

func TestPreservedWordsNeverStopwords(t *testing.T) {
	// An engine that reports every token as a stopword must still leave the
	// preserved words in place.
	eng := newStubEngine()
	for w := range preservedWords {
		eng.stop[w] = true
	}
	c, err := NewCleaner(eng, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for w := range preservedWords {
		if strings.Contains(w, " ") {
			continue
		}
		if c.isStopword(w) {
			t.Errorf("%q treated as stopword", w)
		}
	}
	if got := c.Clean("no me gusta de nada"); !strings.HasPrefix(got, "no ") {
		t.Errorf("negation lost: %q", got)
	}
}

func TestNewCleanerRequiresEngine(t *testing.T) {
	if _, err := NewCleaner(nil, Options{}); err == nil {
		t.Fatal("expected error for nil engine")
	}
}

func TestTranslateEmojisCoversLexicon(t *testing.T) {
	c := newTestCleaner(t, Options{})
	for _, e := range emojiLexicon {
		t.Run(e.word, func(t *testing.T) {
			if got := strings.TrimSpace(c.translateEmojis(e.glyph)); got != e.word {
				t.Errorf("translateEmojis(%s) = %q, want %q", e.glyph, got, e.word)
			}
		})
	}
}
