package randomness

// Sequence replays a fixed list of draws, cycling when exhausted. Each value
// is reduced modulo the requested bound, so Sequence{0} always returns 0.
//
// Useful for reproducible runs and tests where the exact path through the
// branching process matters.
type Sequence struct {
	values []uint32
	next   int
	draws  int
}

// NewSequence returns a Sequence over values. An empty list yields zeros.
func NewSequence(values ...uint32) *Sequence {
	return &Sequence{values: values}
}

// Uint32N implements Source.
func (s *Sequence) Uint32N(n uint32) uint32 {
	s.draws++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v % n
}

// Draws returns how many draws have been made.
func (s *Sequence) Draws() int {
	return s.draws
}
