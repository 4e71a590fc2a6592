package services

// seqRand replays fixed choices so fallback output is predictable.
type seqRand struct {
	vals []int
	i    int
}

func (s *seqRand) IntN(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}
