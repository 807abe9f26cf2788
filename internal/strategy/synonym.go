package strategy

import (
	mathrand "math/rand/v2"
	"strings"
)

// SynonymTransform replaces words with synonyms from the lexicon.
// Macro placeholders ({{NAME}}) are copied through untouched so that
// personalization survives the rewrite.
type SynonymTransform struct {
	lex Lexicon
	cfg SynonymConfig
}

// NewSynonymTransform creates a synonym transform over the given lexicon.
func NewSynonymTransform(lex Lexicon, cfg SynonymConfig) *SynonymTransform {
	if cfg.Probability <= 0 || cfg.Probability > 1 {
		cfg.Probability = DefaultConfig().Synonym.Probability
	}
	return &SynonymTransform{lex: lex, cfg: cfg}
}

// Name implements Transform.
func (t *SynonymTransform) Name() string { return "synonyms" }

// Apply implements Transform. Each word with a lexicon entry is replaced
// with probability cfg.Probability; the replacement keeps the original
// word's capitalization.
func (t *SynonymTransform) Apply(text string, rng *mathrand.Rand) (string, error) {
	table, err := t.lex.Synonyms()
	if err != nil {
		return "", err
	}
	if len(table) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		if end, ok := macroSpan(text, i); ok {
			b.WriteString(text[i:end])
			i = end
			continue
		}
		if !isWordChar(text[i]) {
			b.WriteByte(text[i])
			i++
			continue
		}

		j := i
		for j < len(text) && isWordChar(text[j]) {
			j++
		}
		word := text[i:j]
		i = j

		alts := table[strings.ToLower(word)]
		if len(alts) == 0 || rng.Float64() >= t.cfg.Probability {
			b.WriteString(word)
			continue
		}
		b.WriteString(matchCase(word, alts[rng.IntN(len(alts))]))
	}

	return b.String(), nil
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// matchCase transfers the capitalization pattern of word onto repl:
// all-caps stays all-caps, a leading capital stays a leading capital.
func matchCase(word, repl string) string {
	if word == strings.ToUpper(word) && len(word) > 1 {
		return strings.ToUpper(repl)
	}
	if word[0] >= 'A' && word[0] <= 'Z' {
		if repl == "" {
			return repl
		}
		return strings.ToUpper(repl[:1]) + repl[1:]
	}
	return repl
}
