// Package strategy implements the content transformation pipeline applied
// to generated variants. Each strategy is a text-in/text-out transform;
// the pipeline runs enabled strategies in a fixed order and isolates
// failures so a broken transform never loses a variant.
package strategy

import (
	"log/slog"
	mathrand "math/rand/v2"
)

// Flags selects which strategies to apply to a batch.
type Flags struct {
	Synonyms bool `json:"synonyms" yaml:"synonyms"`
	Trending bool `json:"trending" yaml:"trending"`
	Garbage  bool `json:"garbage" yaml:"garbage"`
}

// Any returns true if at least one strategy is enabled.
func (f Flags) Any() bool {
	return f.Synonyms || f.Trending || f.Garbage
}

// Lexicon provides the word data strategies draw from.
type Lexicon interface {
	// Synonyms returns the synonym table keyed by lowercase word.
	Synonyms() (map[string][]string, error)
	// TrendingTerms returns the current list of trending terms.
	TrendingTerms() ([]string, error)
}

// Transform is a single text transformation step.
type Transform interface {
	// Name identifies the transform in logs and metrics.
	Name() string
	// Apply rewrites text using the given random source.
	Apply(text string, rng *mathrand.Rand) (string, error)
}

// Config holds tuning parameters for the built-in strategies.
type Config struct {
	Synonym  SynonymConfig
	Trending TrendingConfig
	Garbage  GarbageConfig
}

// SynonymConfig controls the synonym replacement strategy.
type SynonymConfig struct {
	// Probability is the chance [0..1] that an eligible word is replaced.
	Probability float64
}

// TrendingConfig controls the trending term insertion strategy.
type TrendingConfig struct {
	// Format wraps the inserted term; must contain one %s verb.
	Format string
}

// GarbageConfig controls the garbage token insertion strategy.
type GarbageConfig struct {
	// Format wraps the random token; must contain one %s verb.
	Format string
	// MinLen and MaxLen bound the random token length.
	MinLen int
	MaxLen int
}

// DefaultConfig returns the strategy defaults used when config omits them.
func DefaultConfig() Config {
	return Config{
		Synonym:  SynonymConfig{Probability: 0.5},
		Trending: TrendingConfig{Format: " | %s"},
		Garbage:  GarbageConfig{Format: " [ref:%s]", MinLen: 6, MaxLen: 10},
	}
}

// Pipeline applies enabled strategies to variant text in a fixed order:
// synonyms, then trending, then garbage. A failing transform logs a
// warning and leaves the text as it was before that transform.
type Pipeline struct {
	synonyms Transform
	trending Transform
	garbage  Transform
	logger   *slog.Logger

	// onApply and onError are invoked with the transform name after each
	// successful or failed transform run.
	onApply func(name string)
	onError func(name string)
}

// NewPipeline builds a pipeline over the given lexicon and config.
func NewPipeline(lex Lexicon, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		synonyms: NewSynonymTransform(lex, cfg.Synonym),
		trending: NewTrendingTransform(lex, cfg.Trending),
		garbage:  NewGarbageTransform(cfg.Garbage),
		logger:   logger,
	}
}

// OnApply registers a callback fired after each successful transform run.
// Used to wire application counters without importing the metrics package.
func (p *Pipeline) OnApply(fn func(name string)) {
	p.onApply = fn
}

// OnError registers a callback fired whenever a transform fails.
// Used to wire failure counters without importing the metrics package.
func (p *Pipeline) OnError(fn func(name string)) {
	p.onError = fn
}

// Apply runs the enabled strategies over text. The order is fixed
// regardless of flag declaration order. Errors never propagate: the
// text from before the failing transform is kept.
func (p *Pipeline) Apply(text string, flags Flags, rng *mathrand.Rand) string {
	if flags.Synonyms {
		text = p.applyOne(p.synonyms, text, rng)
	}
	if flags.Trending {
		text = p.applyOne(p.trending, text, rng)
	}
	if flags.Garbage {
		text = p.applyOne(p.garbage, text, rng)
	}
	return text
}

func (p *Pipeline) applyOne(t Transform, text string, rng *mathrand.Rand) string {
	out, err := t.Apply(text, rng)
	if err != nil {
		p.logger.Warn("strategy failed, keeping previous text", "strategy", t.Name(), "error", err)
		if p.onError != nil {
			p.onError(t.Name())
		}
		return text
	}
	if p.onApply != nil {
		p.onApply(t.Name())
	}
	return out
}

// macroSpan reports the end of a {{NAME}} macro starting at i, so
// transforms can leave macro placeholders untouched. Returns ok=false
// when raw[i:] is not a well-formed macro.
func macroSpan(raw string, i int) (end int, ok bool) {
	if i+1 >= len(raw) || raw[i] != '{' || raw[i+1] != '{' {
		return 0, false
	}
	j := i + 2
	for j < len(raw) && isNameChar(raw[j]) {
		j++
	}
	if j == i+2 || j+1 >= len(raw) || raw[j] != '}' || raw[j+1] != '}' {
		return 0, false
	}
	return j + 2, true
}

func isNameChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
