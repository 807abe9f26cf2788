package strategy

import (
	"fmt"
	mathrand "math/rand/v2"
	"strings"
)

// TrendingTransform appends one currently-trending term to the text,
// wrapped in the configured format.
type TrendingTransform struct {
	lex Lexicon
	cfg TrendingConfig
}

// NewTrendingTransform creates a trending-term transform over the lexicon.
func NewTrendingTransform(lex Lexicon, cfg TrendingConfig) *TrendingTransform {
	if !strings.Contains(cfg.Format, "%s") {
		cfg.Format = DefaultConfig().Trending.Format
	}
	return &TrendingTransform{lex: lex, cfg: cfg}
}

// Name implements Transform.
func (t *TrendingTransform) Name() string { return "trending" }

// Apply implements Transform. An empty trending list leaves the text
// unchanged rather than failing, so an unseeded lexicon is not an error.
func (t *TrendingTransform) Apply(text string, rng *mathrand.Rand) (string, error) {
	terms, err := t.lex.TrendingTerms()
	if err != nil {
		return "", err
	}
	if len(terms) == 0 {
		return text, nil
	}

	term := terms[rng.IntN(len(terms))]
	return text + fmt.Sprintf(t.cfg.Format, term), nil
}
