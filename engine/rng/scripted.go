package rng

// Scripted replays queued draws, then falls back to fixed defaults.
// Queued Ints are clamped into range. When the Int queue is empty,
// Intn returns n-1 if IntHigh is set, else 0.
type Scripted struct {
	Floats  []float64
	Ints    []int
	Float   float64
	IntHigh bool
}

// Float64 implements Source.
func (s *Scripted) Float64() float64 {
	if len(s.Floats) > 0 {
		v := s.Floats[0]
		s.Floats = s.Floats[1:]
		return v
	}
	return s.Float
}

// Intn implements Source.
func (s *Scripted) Intn(n int) int {
	if len(s.Ints) > 0 {
		v := s.Ints[0]
		s.Ints = s.Ints[1:]
		if v >= n {
			v = n - 1
		}
		if v < 0 {
			v = 0
		}
		return v
	}
	if s.IntHigh {
		return n - 1
	}
	return 0
}
