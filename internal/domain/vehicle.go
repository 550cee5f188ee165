package domain

// CapacityProfile bounds what one van may carry.
//
// A standard van has AccessibilitySeats zero and carries only standard
// riders, limited by TotalSeats. An accessibility van splits its
// capacity into accessibility seats and standard (overflow) seats; both
// sub-limits apply in addition to TotalSeats.
type CapacityProfile struct {
	TotalSeats         int
	AccessibilitySeats int
	StandardSeats      int
}

// StandardProfile describes a van that carries only standard riders.
func StandardProfile(seats int) CapacityProfile {
	return CapacityProfile{TotalSeats: seats, StandardSeats: seats}
}

// AccessibilityProfile describes an accessibility-equipped van with a
// separate overflow allowance for standard riders.
func AccessibilityProfile(accessibilitySeats, standardSeats int) CapacityProfile {
	return CapacityProfile{
		TotalSeats:         accessibilitySeats + standardSeats,
		AccessibilitySeats: accessibilitySeats,
		StandardSeats:      standardSeats,
	}
}

// IsAccessibility reports whether the van may carry accessibility riders.
func (p CapacityProfile) IsAccessibility() bool { return p.AccessibilitySeats > 0 }

// SeatsFor returns the sub-limit applying to the given rider class.
func (p CapacityProfile) SeatsFor(requiresAccessibility bool) int {
	if requiresAccessibility {
		return p.AccessibilitySeats
	}
	return p.StandardSeats
}
