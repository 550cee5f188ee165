package domain

import "strings"

// RiderRecord is one row of the master list: a rider, their pickup
// address, and whether they need an accessibility-equipped van.
type RiderRecord struct {
	Name                  string
	Address               string
	RequiresAccessibility bool
}

// ParseAccessibilityFlag interprets the free-form accessibility marker
// found in source sheets. Recognized spellings (case-insensitive):
// "y", "yes", "true", "1". Everything else, including blank, means no.
func ParseAccessibilityFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "1":
		return true
	}
	return false
}

// Stop is a single pickup address and the riders boarding there.
// All riders on one Stop share the same accessibility class; a building
// with riders of both classes yields two Stops, one per fleet.
type Stop struct {
	Address               string
	Riders                []string
	RequiresAccessibility bool
}

// Load is the number of riders boarding at this stop.
func (s *Stop) Load() int { return len(s.Riders) }

// HasRider reports whether the named rider boards at this stop.
func (s *Stop) HasRider(name string) bool {
	for _, r := range s.Riders {
		if r == name {
			return true
		}
	}
	return false
}

// GroupStops folds rider records into Stops, one per unique
// (address, accessibility class) pair, preserving first-seen order.
// Record addresses are compared exactly as given.
func GroupStops(records []RiderRecord) []Stop {
	type key struct {
		address       string
		accessibility bool
	}

	index := make(map[key]int, len(records))
	stops := make([]Stop, 0, len(records))

	for _, rec := range records {
		k := key{address: rec.Address, accessibility: rec.RequiresAccessibility}
		if i, ok := index[k]; ok {
			stops[i].Riders = append(stops[i].Riders, rec.Name)
			continue
		}
		index[k] = len(stops)
		stops = append(stops, Stop{
			Address:               rec.Address,
			Riders:                []string{rec.Name},
			RequiresAccessibility: rec.RequiresAccessibility,
		})
	}

	return stops
}

// SplitByAccessibility separates stops into the standard fleet's set and
// the accessibility fleet's set. The two sets are disjoint and together
// cover the input.
func SplitByAccessibility(stops []Stop) (standard, accessibility []Stop) {
	for _, s := range stops {
		if s.RequiresAccessibility {
			accessibility = append(accessibility, s)
		} else {
			standard = append(standard, s)
		}
	}
	return standard, accessibility
}
