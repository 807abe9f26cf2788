package strategy

import (
	"fmt"
	mathrand "math/rand/v2"
	"strings"
)

const garbageAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GarbageTransform appends a random alphanumeric token to the text,
// wrapped in the configured format. The token is plainly visible in the
// output; it exists only to vary otherwise-identical messages.
type GarbageTransform struct {
	cfg GarbageConfig
}

// NewGarbageTransform creates a garbage-token transform.
func NewGarbageTransform(cfg GarbageConfig) *GarbageTransform {
	def := DefaultConfig().Garbage
	if !strings.Contains(cfg.Format, "%s") {
		cfg.Format = def.Format
	}
	if cfg.MinLen <= 0 {
		cfg.MinLen = def.MinLen
	}
	if cfg.MaxLen < cfg.MinLen {
		cfg.MaxLen = cfg.MinLen
	}
	return &GarbageTransform{cfg: cfg}
}

// Name implements Transform.
func (t *GarbageTransform) Name() string { return "garbage" }

// Apply implements Transform.
func (t *GarbageTransform) Apply(text string, rng *mathrand.Rand) (string, error) {
	n := t.cfg.MinLen
	if t.cfg.MaxLen > t.cfg.MinLen {
		n += rng.IntN(t.cfg.MaxLen - t.cfg.MinLen + 1)
	}

	token := make([]byte, n)
	for i := range token {
		token[i] = garbageAlphabet[rng.IntN(len(garbageAlphabet))]
	}

	return text + fmt.Sprintf(t.cfg.Format, string(token)), nil
}
