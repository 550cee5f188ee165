package domain

// Route is the ordered stop sequence assigned to one van, plus derived
// metrics. The depot is the implicit start and end and never appears in
// Stops. Metrics are recomputed whenever membership or order changes.
type Route struct {
	VehicleID            int
	Profile              CapacityProfile
	Stops                []Stop
	TotalDistanceMeters  int
	TotalDurationSeconds int
}

// TotalLoad is the number of riders across all stops.
func (r *Route) TotalLoad() int {
	n := 0
	for i := range r.Stops {
		n += r.Stops[i].Load()
	}
	return n
}

// AccessibilityLoad counts riders that need accessibility seating.
func (r *Route) AccessibilityLoad() int {
	n := 0
	for i := range r.Stops {
		if r.Stops[i].RequiresAccessibility {
			n += r.Stops[i].Load()
		}
	}
	return n
}

// StandardLoad counts riders in standard seats.
func (r *Route) StandardLoad() int {
	return r.TotalLoad() - r.AccessibilityLoad()
}

// StopIndex returns the position of the stop for the given address and
// rider class, or -1 when the route does not visit it.
func (r *Route) StopIndex(address string, requiresAccessibility bool) int {
	for i := range r.Stops {
		if r.Stops[i].Address == address && r.Stops[i].RequiresAccessibility == requiresAccessibility {
			return i
		}
	}
	return -1
}

// RemoveEmptyStops drops stops whose rider list has become empty,
// preserving the order of the rest.
func (r *Route) RemoveEmptyStops() {
	kept := r.Stops[:0]
	for _, s := range r.Stops {
		if s.Load() > 0 {
			kept = append(kept, s)
		}
	}
	r.Stops = kept
}
