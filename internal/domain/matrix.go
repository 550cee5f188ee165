package domain

// Leg is the travel cost between two points.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
}

// TravelMatrix holds pairwise travel legs for depot plus stops.
// By convention index 0 is the depot. A nil leg means the pair is
// unreachable; consumers must decide how to penalize it rather than
// read a sentinel value. Built once per optimization call and never
// mutated afterwards.
type TravelMatrix struct {
	Legs [][]*Leg
}

// NewTravelMatrix allocates an n by n matrix with every leg unset.
func NewTravelMatrix(n int) *TravelMatrix {
	legs := make([][]*Leg, n)
	for i := range legs {
		legs[i] = make([]*Leg, n)
	}
	return &TravelMatrix{Legs: legs}
}

// Size returns the point count (depot included).
func (m *TravelMatrix) Size() int { return len(m.Legs) }

// At returns the leg from origin index i to destination index j, or nil
// when the pair is unreachable or out of range.
func (m *TravelMatrix) At(i, j int) *Leg {
	if i < 0 || j < 0 || i >= len(m.Legs) || j >= len(m.Legs[i]) {
		return nil
	}
	return m.Legs[i][j]
}
