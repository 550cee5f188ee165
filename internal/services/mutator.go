package services

import (
	"fmt"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/metrics"
)

// Rules a plan edit can violate. The names are stable identifiers
// surfaced to API clients.
const (
	RuleAccessibilityEligibility = "accessibility-eligibility"
	RuleAccessibilitySeatLimit   = "accessibility-seat-limit"
	RuleStandardSeatLimit        = "standard-seat-limit"
	RuleTotalCapacity            = "total-capacity"
)

// ConstraintViolation rejects an edit that would break a capacity or
// eligibility rule. Rule is one of the Rule* constants; Detail says
// which rider, vehicle, and limit were involved.
type ConstraintViolation struct {
	Rule   string
	Detail string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation (%s): %s", e.Rule, e.Detail)
}

// Edit is one atomic change to a plan.
type Edit interface {
	Kind() string
	apply(m *PlanMutator, plan *domain.Plan) error
}

// MoveRiderEdit moves one named rider between (vehicle, address)
// slots. If the target route does not yet visit ToAddress, a new stop
// is created at InsertAt; InsertAt of -1 appends.
type MoveRiderEdit struct {
	Rider         string
	FromVehicleID int
	FromAddress   string
	ToVehicleID   int
	ToAddress     string
	InsertAt      int
}

func (MoveRiderEdit) Kind() string { return "move_rider" }

// ReorderStopsEdit replaces one route's visiting order. Order is a
// permutation of the route's current stop indices.
type ReorderStopsEdit struct {
	VehicleID int
	Order     []int
}

func (ReorderStopsEdit) Kind() string { return "reorder_stops" }

// ReorderRidersEdit rearranges the rider list inside one stop. Purely
// cosmetic; carries no constraint or metric impact.
type ReorderRidersEdit struct {
	VehicleID int
	Address   string
	Riders    []string
}

func (ReorderRidersEdit) Kind() string { return "reorder_riders" }

// PlanMutator applies edits to plans. Edits are all-or-nothing: the
// input plan is never touched, and the edited copy is returned only if
// every validation passes. Route metrics are recomputed by replaying
// the cost model, not by re-running the solver.
//
// The mutator itself is stateless; serializing edits against one plan
// is the session owner's job.
type PlanMutator struct {
	costs *CostModel
}

func NewPlanMutator(costs *CostModel) *PlanMutator {
	return &PlanMutator{costs: costs}
}

// Apply returns an edited copy of plan, or an error with plan
// untouched. A *ConstraintViolation means the edit asked for something
// the capacity rules forbid; any other error means the edit referenced
// a vehicle, stop, or rider the plan does not have.
func (m *PlanMutator) Apply(plan *domain.Plan, edit Edit) (*domain.Plan, error) {
	staged := plan.Clone()
	if err := edit.apply(m, staged); err != nil {
		metrics.PlanEdits.WithLabelValues(edit.Kind(), "rejected").Inc()
		return nil, err
	}
	metrics.PlanEdits.WithLabelValues(edit.Kind(), "applied").Inc()
	return staged, nil
}

func (e MoveRiderEdit) apply(m *PlanMutator, plan *domain.Plan) error {
	source := plan.Route(e.FromVehicleID)
	if source == nil {
		return fmt.Errorf("move rider: no vehicle %d", e.FromVehicleID)
	}
	target := plan.Route(e.ToVehicleID)
	if target == nil {
		return fmt.Errorf("move rider: no vehicle %d", e.ToVehicleID)
	}

	si := e.findSourceStop(source)
	if si == -1 {
		return fmt.Errorf("move rider: rider %q not at %q on vehicle %d",
			e.Rider, e.FromAddress, e.FromVehicleID)
	}
	requiresAccessibility := source.Stops[si].RequiresAccessibility

	removeRider(&source.Stops[si], e.Rider)
	source.RemoveEmptyStops()

	if err := e.validateTarget(target, requiresAccessibility); err != nil {
		return err
	}

	ti := target.StopIndex(e.ToAddress, requiresAccessibility)
	if ti == -1 {
		ti = clampInsert(e.InsertAt, len(target.Stops))
		target.Stops = append(target.Stops, domain.Stop{})
		copy(target.Stops[ti+1:], target.Stops[ti:])
		target.Stops[ti] = domain.Stop{
			Address:               e.ToAddress,
			RequiresAccessibility: requiresAccessibility,
		}
	}
	target.Stops[ti].Riders = append(target.Stops[ti].Riders, e.Rider)

	m.rescore(source)
	m.rescore(target)
	return nil
}

// findSourceStop locates the stop the rider is boarding at. The
// address alone is not enough: one address can appear once per rider
// class on the same route.
func (e MoveRiderEdit) findSourceStop(route *domain.Route) int {
	for i := range route.Stops {
		if route.Stops[i].Address == e.FromAddress && route.Stops[i].HasRider(e.Rider) {
			return i
		}
	}
	return -1
}

// validateTarget checks the move against the target vehicle's limits,
// in rule order. The source route has already given the rider up, so
// same-vehicle moves count loads correctly.
func (e MoveRiderEdit) validateTarget(target *domain.Route, requiresAccessibility bool) error {
	prof := target.Profile

	if requiresAccessibility && prof.AccessibilitySeats == 0 {
		return &ConstraintViolation{
			Rule: RuleAccessibilityEligibility,
			Detail: fmt.Sprintf("rider %q needs an accessibility seat but vehicle %d has none",
				e.Rider, e.ToVehicleID),
		}
	}
	if requiresAccessibility && target.AccessibilityLoad()+1 > prof.AccessibilitySeats {
		return &ConstraintViolation{
			Rule: RuleAccessibilitySeatLimit,
			Detail: fmt.Sprintf("vehicle %d is at its accessibility-seat limit of %d",
				e.ToVehicleID, prof.AccessibilitySeats),
		}
	}
	if !requiresAccessibility && target.StandardLoad()+1 > prof.StandardSeats {
		return &ConstraintViolation{
			Rule: RuleStandardSeatLimit,
			Detail: fmt.Sprintf("vehicle %d is at its standard-seat limit of %d",
				e.ToVehicleID, prof.StandardSeats),
		}
	}
	if target.TotalLoad()+1 > prof.TotalSeats {
		return &ConstraintViolation{
			Rule: RuleTotalCapacity,
			Detail: fmt.Sprintf("vehicle %d is at its total capacity of %d",
				e.ToVehicleID, prof.TotalSeats),
		}
	}
	return nil
}

func (e ReorderStopsEdit) apply(m *PlanMutator, plan *domain.Plan) error {
	route := plan.Route(e.VehicleID)
	if route == nil {
		return fmt.Errorf("reorder stops: no vehicle %d", e.VehicleID)
	}
	if len(e.Order) != len(route.Stops) {
		return fmt.Errorf("reorder stops: order has %d entries, route has %d stops",
			len(e.Order), len(route.Stops))
	}

	seen := make([]bool, len(route.Stops))
	reordered := make([]domain.Stop, len(route.Stops))
	for pos, idx := range e.Order {
		if idx < 0 || idx >= len(route.Stops) || seen[idx] {
			return fmt.Errorf("reorder stops: order is not a permutation of 0..%d", len(route.Stops)-1)
		}
		seen[idx] = true
		reordered[pos] = route.Stops[idx]
	}
	route.Stops = reordered

	m.rescore(route)
	return nil
}

func (e ReorderRidersEdit) apply(m *PlanMutator, plan *domain.Plan) error {
	route := plan.Route(e.VehicleID)
	if route == nil {
		return fmt.Errorf("reorder riders: no vehicle %d", e.VehicleID)
	}

	for i := range route.Stops {
		stop := &route.Stops[i]
		if stop.Address != e.Address {
			continue
		}
		if !samePassengers(stop.Riders, e.Riders) {
			continue
		}
		stop.Riders = append([]string(nil), e.Riders...)
		return nil
	}
	return fmt.Errorf("reorder riders: no stop at %q on vehicle %d with exactly those riders",
		e.Address, e.VehicleID)
}

func (m *PlanMutator) rescore(route *domain.Route) {
	meters, seconds := m.costs.RouteMetrics(route)
	route.TotalDistanceMeters = meters
	route.TotalDurationSeconds = seconds
}

func removeRider(stop *domain.Stop, name string) {
	kept := stop.Riders[:0]
	for _, r := range stop.Riders {
		if r != name {
			kept = append(kept, r)
		}
	}
	stop.Riders = kept
}

func clampInsert(at, n int) int {
	if at < 0 || at > n {
		return n
	}
	return at
}

// samePassengers reports whether b is a permutation of a.
func samePassengers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, r := range a {
		counts[r]++
	}
	for _, r := range b {
		counts[r]--
		if counts[r] < 0 {
			return false
		}
	}
	return true
}
