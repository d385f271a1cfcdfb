package randomness

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// Secure is a ChaCha8-backed Source that rekeys itself from crypto/rand
// every reseedAfter draws.
type Secure struct {
	r           *rand.Rand
	chacha      *rand.ChaCha8
	reseedAfter int
	draws       int
}

// NewSecure returns a Secure source. reseedAfter below 1 is treated as 1.
func NewSecure(reseedAfter int) *Secure {
	if reseedAfter < 1 {
		reseedAfter = 1
	}
	s := &Secure{
		chacha:      rand.NewChaCha8(entropySeed()),
		reseedAfter: reseedAfter,
	}
	s.r = rand.New(s.chacha)
	return s
}

// Uint32N implements Source.
func (s *Secure) Uint32N(n uint32) uint32 {
	if s.draws >= s.reseedAfter {
		s.chacha.Seed(entropySeed())
		s.draws = 0
	}
	s.draws++
	return s.r.Uint32N(n)
}

func entropySeed() [32]byte {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand failing means the OS entropy source is unusable.
		panic("randomness: crypto/rand.Read failed: " + err.Error())
	}
	return seed
}
