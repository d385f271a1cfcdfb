package randomness

import "math/rand/v2"

// Fast is a PCG-backed Source.
type Fast struct {
	r *rand.Rand
}

// NewFast returns a Fast source seeded from the runtime generator.
func NewFast() *Fast {
	return NewFastSeeded(rand.Uint64(), rand.Uint64())
}

// NewFastSeeded returns a Fast source with a fixed PCG seed.
func NewFastSeeded(seed1, seed2 uint64) *Fast {
	return &Fast{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// Uint32N implements Source.
func (f *Fast) Uint32N(n uint32) uint32 {
	return f.r.Uint32N(n)
}
