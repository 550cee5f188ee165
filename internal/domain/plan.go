package domain

import "sort"

// Plan is the complete set of per-van routes for one optimization
// session, together with the addresses that could not be geocoded or
// reached. A Plan is edited in place by the mutation layer; callers
// keep a pristine Clone to support resetting to the optimized result.
type Plan struct {
	// Feasible reports that every requested rider was routed. Excluded
	// addresses (failed geocode, unreachable from the depot) leave the
	// plan partial and clear the flag; they are listed in Unassigned.
	Feasible   bool
	Routes     []Route
	Unassigned []string
}

// Clone returns a deep copy sharing no slices with the original.
func (p *Plan) Clone() *Plan {
	out := &Plan{
		Feasible:   p.Feasible,
		Routes:     make([]Route, len(p.Routes)),
		Unassigned: append([]string(nil), p.Unassigned...),
	}
	for i, r := range p.Routes {
		stops := make([]Stop, len(r.Stops))
		for j, s := range r.Stops {
			stops[j] = Stop{
				Address:               s.Address,
				Riders:                append([]string(nil), s.Riders...),
				RequiresAccessibility: s.RequiresAccessibility,
			}
		}
		out.Routes[i] = Route{
			VehicleID:            r.VehicleID,
			Profile:              r.Profile,
			Stops:                stops,
			TotalDistanceMeters:  r.TotalDistanceMeters,
			TotalDurationSeconds: r.TotalDurationSeconds,
		}
	}
	return out
}

// Route returns the route owned by the given vehicle, or nil.
func (p *Plan) Route(vehicleID int) *Route {
	for i := range p.Routes {
		if p.Routes[i].VehicleID == vehicleID {
			return &p.Routes[i]
		}
	}
	return nil
}

// RiderNames lists every rider assigned to any route, sorted, so tests
// can check conservation against the input set.
func (p *Plan) RiderNames() []string {
	var names []string
	for i := range p.Routes {
		for j := range p.Routes[i].Stops {
			names = append(names, p.Routes[i].Stops[j].Riders...)
		}
	}
	sort.Strings(names)
	return names
}

// TotalRiders counts riders across all routes.
func (p *Plan) TotalRiders() int {
	n := 0
	for i := range p.Routes {
		n += p.Routes[i].TotalLoad()
	}
	return n
}

// Merge appends another plan's routes and unassigned addresses. Both
// fleets of one session are optimized independently and merged for
// editing; vehicle IDs must already be unique across the two.
func (p *Plan) Merge(other *Plan) {
	if other == nil {
		return
	}
	p.Feasible = p.Feasible && other.Feasible
	p.Routes = append(p.Routes, other.Routes...)
	p.Unassigned = append(p.Unassigned, other.Unassigned...)
}
