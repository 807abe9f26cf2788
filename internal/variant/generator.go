package variant

import (
	"crypto/sha256"
	mathrand "math/rand/v2"

	"github.com/google/uuid"

	"github.com/spindlehq/spindle/internal/spintax"
	"github.com/spindlehq/spindle/internal/strategy"
)

// DefaultAttemptMultiplier bounds the uniqueness search: a batch of N
// variants gets at most N*multiplier expansion attempts before duplicates
// are accepted.
const DefaultAttemptMultiplier = 10

// Pipeline post-processes rendered text after a batch is assembled.
// Implementations isolate their own failures and always return usable text.
type Pipeline interface {
	Apply(text string, flags strategy.Flags, rng *mathrand.Rand) string
}

// Generator produces deduplicated variant batches from token sequences. It
// holds no state between calls and each batch owns its RNG stream, so one
// Generator is safe for concurrent use.
type Generator struct {
	multiplier int
	pipeline   Pipeline
}

// NewGenerator creates a batch generator. A multiplier of zero or less falls
// back to DefaultAttemptMultiplier; pipeline may be nil when no post-pass is
// wired.
func NewGenerator(multiplier int, pipeline Pipeline) *Generator {
	if multiplier <= 0 {
		multiplier = DefaultAttemptMultiplier
	}
	return &Generator{multiplier: multiplier, pipeline: pipeline}
}

// Generate renders req.Count variants from a validated token sequence.
// Rendered texts are deduplicated by content hash; once the attempt budget
// is spent, duplicates are accepted so the batch always comes back full.
// Stats report the attempts used and whether duplicates were let through.
func (g *Generator) Generate(tokens []spintax.Token, req Request) ([]Variant, Stats) {
	stats := Stats{Requested: req.Count}
	if req.Count <= 0 {
		return nil, stats
	}

	rng := NewRNG(req.Seed)
	ids := rngReader{rng: rng}
	budget := req.Count * g.multiplier
	seen := make(map[[sha256.Size]byte]struct{}, req.Count)
	variants := make([]Variant, 0, req.Count)

	for len(variants) < req.Count {
		text := spintax.Expand(tokens, rng)
		stats.Attempts++

		sum := sha256.Sum256([]byte(text))
		if _, dup := seen[sum]; dup {
			if stats.Attempts < budget {
				continue
			}
			stats.BudgetExhausted = true
		} else {
			seen[sum] = struct{}{}
		}

		variants = append(variants, Variant{
			ID:   uuid.Must(uuid.NewRandomFromReader(ids)).String(),
			Text: text,
			Mode: req.Mode,
		})
	}
	stats.Unique = len(seen)

	if g.pipeline != nil && req.Strategies.Any() {
		for i := range variants {
			variants[i].Text = g.pipeline.Apply(variants[i].Text, req.Strategies, rng)
		}
	}
	return variants, stats
}
