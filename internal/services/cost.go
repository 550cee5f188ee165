package services

import (
	"van-route-service/internal/domain"
)

// unreachablePenaltySeconds stands in for legs the oracle reported
// unreachable. It must dominate any real travel duration so the search
// never prefers an unreachable leg, while staying far from integer
// overflow when summed along a route.
const unreachablePenaltySeconds = 8 * 60 * 60

// CostModel replays the pairwise travel costs used during optimization
// so an edited plan can be re-scored without re-running the solver.
// Legs are keyed by address, which keeps lookups valid after riders
// move between the standard and accessibility fleets.
type CostModel struct {
	depot string
	legs  map[string]map[string]*domain.Leg
}

// NewCostModel indexes a travel matrix by address. addresses[i] must
// correspond to matrix index i+1; index 0 is the depot.
func NewCostModel(depotAddress string, addresses []string, matrix *domain.TravelMatrix) *CostModel {
	keys := append([]string{depotAddress}, addresses...)
	legs := make(map[string]map[string]*domain.Leg, len(keys))
	for i, from := range keys {
		row, ok := legs[from]
		if !ok {
			row = make(map[string]*domain.Leg, len(keys))
			legs[from] = row
		}
		for j, to := range keys {
			row[to] = matrix.At(i, j)
		}
	}
	return &CostModel{depot: depotAddress, legs: legs}
}

// Merge folds another model's legs into this one. Used to combine the
// standard and accessibility fleets' matrices into one session model;
// both share the same depot.
func (c *CostModel) Merge(other *CostModel) {
	if other == nil {
		return
	}
	for from, row := range other.legs {
		dst, ok := c.legs[from]
		if !ok {
			dst = make(map[string]*domain.Leg, len(row))
			c.legs[from] = dst
		}
		for to, leg := range row {
			if leg != nil || dst[to] == nil {
				dst[to] = leg
			}
		}
	}
}

// Leg returns the travel leg between two addresses, or nil when the
// pair is unknown or unreachable.
func (c *CostModel) Leg(from, to string) *domain.Leg {
	row, ok := c.legs[from]
	if !ok {
		return nil
	}
	return row[to]
}

// Knows reports whether the model has any cost row for the address.
func (c *CostModel) Knows(address string) bool {
	_, ok := c.legs[address]
	return ok
}

// RouteMetrics replays the depot -> stops -> depot loop for a route and
// returns its total distance and duration. Unknown or unreachable legs
// contribute the unreachable penalty to the duration so edited plans
// that route through a broken pair score visibly worse.
func (c *CostModel) RouteMetrics(route *domain.Route) (meters, seconds int) {
	if len(route.Stops) == 0 {
		return 0, 0
	}

	prev := c.depot
	for i := range route.Stops {
		meters, seconds = c.addLeg(meters, seconds, prev, route.Stops[i].Address)
		prev = route.Stops[i].Address
	}
	return c.addLeg(meters, seconds, prev, c.depot)
}

// Rescore recomputes every route's metrics in place.
func (c *CostModel) Rescore(plan *domain.Plan) {
	for i := range plan.Routes {
		m, s := c.RouteMetrics(&plan.Routes[i])
		plan.Routes[i].TotalDistanceMeters = m
		plan.Routes[i].TotalDurationSeconds = s
	}
}

func (c *CostModel) addLeg(meters, seconds int, from, to string) (int, int) {
	leg := c.Leg(from, to)
	if leg == nil {
		return meters, seconds + unreachablePenaltySeconds
	}
	return meters + leg.DistanceMeters, seconds + leg.DurationSeconds
}
