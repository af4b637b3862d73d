package preprocessing

import (
	"regexp"
	"strings"
	"testing"
)

func TestParseLemmas(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "comments and blanks skipped",
			data: "# header\n\ngusta\tgustar\nproductos\tproducto\n",
			want: map[string]string{"gusta": "gustar", "productos": "producto"},
		},
		{name: "missing tab", data: "gusta gustar\n", wantErr: true},
		{name: "empty lemma", data: "gusta\t \n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLemmas([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("lemma[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestEmbeddedLemmaDictionary(t *testing.T) {
	lemmas, err := parseLemmas(lemmaData)
	if err != nil {
		t.Fatalf("embedded dictionary: %v", err)
	}
	if len(lemmas) == 0 {
		t.Fatal("embedded dictionary is empty")
	}
	letters := regexp.MustCompile(`^[a-záéíóúüñ]+$`)
	for form, lemma := range lemmas {
		if !letters.MatchString(form) || !letters.MatchString(lemma) {
			t.Errorf("entry %q -> %q has characters the cleaner would strip", form, lemma)
		}
		// A lemma that is itself a form would make cleaning non-idempotent.
		if next, ok := lemmas[lemma]; ok {
			t.Errorf("lemma %q of %q maps again to %q", lemma, form, next)
		}
	}
}

func TestSpanishEngine(t *testing.T) {
	eng, err := NewSpanishEngine(false)
	if err != nil {
		t.Fatalf("NewSpanishEngine: %v", err)
	}

	for _, w := range []string{"de", "el", "la", "que"} {
		if !eng.IsStopword(w) {
			t.Errorf("IsStopword(%q) = false", w)
		}
	}
	for _, w := range []string{"producto", "risa", "excelente", ""} {
		if eng.IsStopword(w) {
			t.Errorf("IsStopword(%q) = true", w)
		}
	}

	if l, ok := eng.Lemma("gusta"); !ok || l != "gustar" {
		t.Errorf("Lemma(gusta) = %q, %v", l, ok)
	}
	if _, ok := eng.Lemma("risa"); ok {
		t.Error("Lemma(risa) should be unknown without stem fallback")
	}
	if _, ok := eng.Lemma("   "); ok {
		t.Error("whitespace token must not be lemmatized")
	}
	if got := eng.Tokenize(" hola   mundo \n"); len(got) != 2 {
		t.Errorf("Tokenize = %q", got)
	}
}

func TestSpanishEngineStemFallback(t *testing.T) {
	eng, err := NewSpanishEngine(true)
	if err != nil {
		t.Fatalf("NewSpanishEngine: %v", err)
	}
	stem, ok := eng.Lemma("guitarras")
	if !ok || stem == "guitarras" || !strings.HasPrefix(stem, "guitarr") {
		t.Errorf("Lemma(guitarras) = %q, %v; want a snowball stem", stem, ok)
	}
	// dictionary entries win over the stemmer
	if l, _ := eng.Lemma("recomiendo"); l != "recomendar" {
		t.Errorf("Lemma(recomiendo) = %q", l)
	}
}

func TestCleanWithSpanishEngine(t *testing.T) {
	eng, err := NewSpanishEngine(false)
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewCleaner(eng, Options{})
	if err != nil {
		t.Fatal(err)
	}

	got := strings.Fields(c.Clean("No me gusta de nada este producto 😂 @tienda https://t.co/x"))
	has := func(w string) bool {
		for _, g := range got {
			if g == w {
				return true
			}
		}
		return false
	}
	for _, w := range []string{"no", "gustar", "producto", "risa"} {
		if !has(w) {
			t.Errorf("expected %q in %q", w, got)
		}
	}
	for _, w := range []string{"de", "me", "tienda"} {
		if has(w) {
			t.Errorf("unexpected %q in %q", w, got)
		}
	}
}
