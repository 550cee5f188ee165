package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/metrics"
	"van-route-service/internal/platform/obs"
)

// InfeasibleError means no assignment of stops to vans can satisfy the
// capacity and eligibility constraints. The reason names the offending
// stop or shortfall so the caller can report something actionable.
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string { return "routing infeasible: " + e.Reason }

// OptimizeRequest is one fleet's problem instance. Stops[i] corresponds
// to Matrix index i+1; Matrix index 0 is the depot.
type OptimizeRequest struct {
	Stops    []domain.Stop
	Profiles []domain.CapacityProfile
	Matrix   *domain.TravelMatrix

	// FirstVehicleID numbers this fleet's vans. The two fleets of one
	// session pass disjoint ranges so the merged plan has unique IDs.
	FirstVehicleID int
}

// Optimizer assigns stops to vans and orders each van's stops,
// minimizing total drive time plus a weighted longest-route term.
// Construction is cheapest insertion; a time-budgeted local search
// then improves the result in place.
type Optimizer struct {
	// Balance weighs the longest route's duration against the total.
	// Zero optimizes pure total time; larger values trade total time
	// for evenness across vans.
	Balance float64

	// TimeBudget caps local search wall-clock time. Construction always
	// runs to completion regardless.
	TimeBudget time.Duration

	// Seed fixes the perturbation RNG for reproducible runs. Zero seeds
	// from the clock.
	Seed int64
}

const (
	defaultBalance    = 3.0
	defaultTimeBudget = 10 * time.Second
)

func NewOptimizer() *Optimizer {
	return &Optimizer{Balance: defaultBalance, TimeBudget: defaultTimeBudget}
}

// Optimize solves one fleet. Stops unreachable from the depot in either
// direction are left out of the routes and reported in the plan's
// Unassigned list; the call still succeeds, with Feasible cleared to
// mark the plan partial.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (_ *domain.Plan, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)
	start := time.Now()
	defer func() { metrics.SolveDuration.Observe(time.Since(start).Seconds()) }()

	plan := &domain.Plan{}
	for v, p := range req.Profiles {
		plan.Routes = append(plan.Routes, domain.Route{
			VehicleID: req.FirstVehicleID + v,
			Profile:   p,
		})
	}

	prob := o.newProblem(req, plan)
	if len(prob.stops) == 0 {
		// Nothing routable. An empty input is a valid empty plan.
		plan.Feasible = len(plan.Unassigned) == 0
		return plan, nil
	}

	if err := prob.checkFeasible(); err != nil {
		return nil, err
	}

	sol, err := prob.construct()
	if err != nil {
		return nil, err
	}

	deadline := start.Add(o.TimeBudget)
	seed := o.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}
	prob.improve(ctx, sol, deadline, rand.New(rand.NewSource(seed)))

	for v := range plan.Routes {
		order := sol.orders[v]
		route := &plan.Routes[v]
		route.Stops = make([]domain.Stop, len(order))
		for i, s := range order {
			route.Stops[i] = prob.stops[s]
		}
		route.TotalDistanceMeters = prob.routeMeters(order)
		route.TotalDurationSeconds = prob.routeSeconds(order)
	}
	plan.Feasible = len(plan.Unassigned) == 0

	return plan, nil
}

// vanLoad tracks one van's seat usage during search.
type vanLoad struct {
	access   int
	standard int
}

// fleetProblem is the index-space view of one fleet's instance: stops
// renumbered after dropping depot-unreachable ones, with pts mapping
// each stop back to its matrix index.
type fleetProblem struct {
	stops    []domain.Stop
	pts      []int
	profiles []domain.CapacityProfile
	matrix   *domain.TravelMatrix
	balance  float64

	// spread forces every van to carry at least one stop. It applies
	// only when there are at least as many routable stops as vans.
	spread bool
}

func (o *Optimizer) newProblem(req OptimizeRequest, plan *domain.Plan) *fleetProblem {
	prob := &fleetProblem{
		profiles: req.Profiles,
		matrix:   req.Matrix,
		balance:  o.Balance,
	}
	for i := range req.Stops {
		if req.Matrix.At(0, i+1) == nil || req.Matrix.At(i+1, 0) == nil {
			plan.Unassigned = append(plan.Unassigned, req.Stops[i].Address)
			continue
		}
		prob.stops = append(prob.stops, req.Stops[i])
		prob.pts = append(prob.pts, i+1)
	}
	prob.spread = len(prob.stops) >= len(prob.profiles)
	return prob
}

// checkFeasible runs the cheap necessary conditions before any search:
// every stop must fit some van on its own, and aggregate demand per
// rider class must fit aggregate fleet capacity. Insertion failure
// later still reports infeasibility for instances that pass here.
func (p *fleetProblem) checkFeasible() error {
	if len(p.profiles) == 0 {
		return &InfeasibleError{Reason: "no vans configured for this fleet"}
	}

	var capAccess, capStandard, capTotal int
	for _, prof := range p.profiles {
		capAccess += prof.AccessibilitySeats
		capStandard += prof.StandardSeats
		capTotal += prof.TotalSeats
	}

	var demAccess, demStandard int
	for i := range p.stops {
		s := &p.stops[i]
		if !p.anyVanFits(s) {
			return &InfeasibleError{Reason: fmt.Sprintf(
				"stop %q has %d riders, more than any single van can carry", s.Address, s.Load())}
		}
		if s.RequiresAccessibility {
			demAccess += s.Load()
		} else {
			demStandard += s.Load()
		}
	}

	if demAccess > capAccess {
		return &InfeasibleError{Reason: fmt.Sprintf(
			"%d riders need accessibility seats but the fleet has %d", demAccess, capAccess)}
	}
	if demStandard > capStandard {
		return &InfeasibleError{Reason: fmt.Sprintf(
			"%d standard riders exceed the fleet's %d standard seats", demStandard, capStandard)}
	}
	if demAccess+demStandard > capTotal {
		return &InfeasibleError{Reason: fmt.Sprintf(
			"%d riders exceed the fleet's %d total seats", demAccess+demStandard, capTotal)}
	}
	return nil
}

func (p *fleetProblem) anyVanFits(s *domain.Stop) bool {
	for _, prof := range p.profiles {
		if s.Load() <= prof.SeatsFor(s.RequiresAccessibility) && s.Load() <= prof.TotalSeats {
			return true
		}
	}
	return false
}

// fits reports whether adding stop s to van v keeps every sub-limit.
func (p *fleetProblem) fits(v int, load vanLoad, s *domain.Stop) bool {
	prof := p.profiles[v]
	access, standard := load.access, load.standard
	if s.RequiresAccessibility {
		access += s.Load()
	} else {
		standard += s.Load()
	}
	return access <= prof.AccessibilitySeats &&
		standard <= prof.StandardSeats &&
		access+standard <= prof.TotalSeats
}

// legSeconds returns drive seconds between two stop indices, -1 meaning
// the depot. Unreachable pairs cost the unreachable penalty so the
// search avoids them without special cases.
func (p *fleetProblem) legSeconds(from, to int) int {
	leg := p.matrix.At(p.point(from), p.point(to))
	if leg == nil {
		return unreachablePenaltySeconds
	}
	return leg.DurationSeconds
}

func (p *fleetProblem) legMeters(from, to int) int {
	leg := p.matrix.At(p.point(from), p.point(to))
	if leg == nil {
		return 0
	}
	return leg.DistanceMeters
}

func (p *fleetProblem) point(stop int) int {
	if stop < 0 {
		return 0
	}
	return p.pts[stop]
}

func (p *fleetProblem) routeSeconds(order []int) int {
	if len(order) == 0 {
		return 0
	}
	total := 0
	prev := -1
	for _, s := range order {
		total += p.legSeconds(prev, s)
		prev = s
	}
	return total + p.legSeconds(prev, -1)
}

func (p *fleetProblem) routeMeters(order []int) int {
	if len(order) == 0 {
		return 0
	}
	total := 0
	prev := -1
	for _, s := range order {
		total += p.legMeters(prev, s)
		prev = s
	}
	return total + p.legMeters(prev, -1)
}

// solution is a full assignment: orders[v] lists van v's stops in visit
// order; loads mirrors the seat usage implied by orders.
type solution struct {
	orders [][]int
	loads  []vanLoad
}

func (s *solution) clone() *solution {
	out := &solution{
		orders: make([][]int, len(s.orders)),
		loads:  append([]vanLoad(nil), s.loads...),
	}
	for v, order := range s.orders {
		out.orders[v] = append([]int(nil), order...)
	}
	return out
}

func (p *fleetProblem) cost(sol *solution) float64 {
	total, longest := 0, 0
	for _, order := range sol.orders {
		d := p.routeSeconds(order)
		total += d
		if d > longest {
			longest = d
		}
	}
	return float64(total) + p.balance*float64(longest)
}

// insertionDelta is the duration added by placing stop s at position
// pos of order.
func (p *fleetProblem) insertionDelta(order []int, pos, s int) int {
	prev, next := -1, -1
	if pos > 0 {
		prev = order[pos-1]
	}
	if pos < len(order) {
		next = order[pos]
	}
	return p.legSeconds(prev, s) + p.legSeconds(s, next) - p.legSeconds(prev, next)
}

// construct builds an initial solution by cheapest insertion. When the
// spread policy applies, empty vans are seeded first so none finishes
// the day idle.
func (p *fleetProblem) construct() (*solution, error) {
	sol := &solution{
		orders: make([][]int, len(p.profiles)),
		loads:  make([]vanLoad, len(p.profiles)),
	}

	pending := make(map[int]bool, len(p.stops))
	for s := range p.stops {
		pending[s] = true
	}

	if p.spread {
		p.seedEmptyVans(sol, pending)
	}

	for len(pending) > 0 {
		bestStop, bestVan, bestPos := -1, -1, -1
		bestDelta := 0
		for _, s := range sortedKeys(pending) {
			stop := &p.stops[s]
			for v := range sol.orders {
				if !p.fits(v, sol.loads[v], stop) {
					continue
				}
				for pos := 0; pos <= len(sol.orders[v]); pos++ {
					delta := p.insertionDelta(sol.orders[v], pos, s)
					if bestStop == -1 || delta < bestDelta {
						bestStop, bestVan, bestPos, bestDelta = s, v, pos, delta
					}
				}
			}
		}
		if bestStop == -1 {
			return nil, &InfeasibleError{Reason: fmt.Sprintf(
				"no van has room for %s", p.describePending(pending))}
		}
		p.insert(sol, bestVan, bestPos, bestStop)
		delete(pending, bestStop)
	}

	return sol, nil
}

// seedEmptyVans gives each van its first stop, choosing the pending
// stop with the cheapest depot round trip among those the van can
// carry. A van with no carryable stop is left empty; the at-least-one
// policy applies only where structurally possible. Accessibility stops
// naturally land on accessibility vans because fits rejects the rest.
func (p *fleetProblem) seedEmptyVans(sol *solution, pending map[int]bool) {
	for v := range sol.orders {
		if len(pending) == 0 {
			return
		}
		best := -1
		bestCost := 0
		for _, s := range sortedKeys(pending) {
			if !p.fits(v, sol.loads[v], &p.stops[s]) {
				continue
			}
			c := p.legSeconds(-1, s) + p.legSeconds(s, -1)
			if best == -1 || c < bestCost {
				best, bestCost = s, c
			}
		}
		if best == -1 {
			continue
		}
		p.insert(sol, v, 0, best)
		delete(pending, best)
	}
}

func (p *fleetProblem) insert(sol *solution, v, pos, s int) {
	order := sol.orders[v]
	order = append(order, 0)
	copy(order[pos+1:], order[pos:])
	order[pos] = s
	sol.orders[v] = order

	if p.stops[s].RequiresAccessibility {
		sol.loads[v].access += p.stops[s].Load()
	} else {
		sol.loads[v].standard += p.stops[s].Load()
	}
}

func (p *fleetProblem) remove(sol *solution, v, pos int) int {
	s := sol.orders[v][pos]
	sol.orders[v] = append(sol.orders[v][:pos], sol.orders[v][pos+1:]...)
	if p.stops[s].RequiresAccessibility {
		sol.loads[v].access -= p.stops[s].Load()
	} else {
		sol.loads[v].standard -= p.stops[s].Load()
	}
	return s
}

func (p *fleetProblem) describePending(pending map[int]bool) string {
	addrs := make([]string, 0, len(pending))
	for _, s := range sortedKeys(pending) {
		addrs = append(addrs, fmt.Sprintf("%q", p.stops[s].Address))
	}
	return strings.Join(addrs, ", ")
}

// sortedKeys keeps candidate scanning deterministic for a given input.
func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
