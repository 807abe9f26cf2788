package variant

import (
	mathrand "math/rand/v2"
)

// NewRNG returns the random stream driving a batch. Seed zero derives a
// fresh stream from the runtime's entropy-seeded global source; any other
// seed yields a reproducible PCG stream so batches can be replayed.
func NewRNG(seed uint64) *mathrand.Rand {
	if seed == 0 {
		return mathrand.New(mathrand.NewPCG(mathrand.Uint64(), mathrand.Uint64()))
	}
	return mathrand.New(mathrand.NewPCG(seed, seed))
}

// rngReader adapts the batch RNG to io.Reader so variant IDs draw from the
// same stream and a seeded batch replays byte for byte, IDs included.
type rngReader struct {
	rng *mathrand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.UintN(256))
	}
	return len(p), nil
}
