// Package dictionary loads the word lists the ValueGenerator's string
// fallback alternates between, and exposes the "Latin" mode as a thin
// marker meaning "use gofakeit's own lorem generator instead of a
// human-language word list".
package dictionary

import (
	_ "embed"
	"strings"
)

//go:embed assets/english.txt
var englishAsset string

//go:embed assets/spanish.txt
var spanishAsset string

// Words is an immutable, already-tokenized word list plus whether the
// "Latin" (gofakeit lorem) fallback is also enabled alongside it.
type Words struct {
	List  []string
	Latin bool
}

// Load builds the word list for a run from the three dictionary-source
// toggles. When english and spanish are both selected, their word lists
// are concatenated (spec: "When multiple dictionaries are selected they
// are concatenated"). Missing/unparseable assets degrade to an empty list
// rather than an error — the generator falls through to lorem in that case.
func Load(useLatin, useEnglish, useSpanish bool) Words {
	var words []string
	if useEnglish {
		words = append(words, tokenize(englishAsset)...)
	}
	if useSpanish {
		words = append(words, tokenize(spanishAsset)...)
	}
	return Words{List: words, Latin: useLatin}
}

func tokenize(asset string) []string {
	fields := strings.Fields(asset)
	out := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.TrimSpace(w)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
