package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/obs"
)

// PlanRequest is one full optimization request: the depot, the master
// rider list, and the capacity profiles of both fleets.
type PlanRequest struct {
	DepotAddress      string
	Riders            []domain.RiderRecord
	StandardVans      []domain.CapacityProfile
	AccessibilityVans []domain.CapacityProfile
}

// PlanResult is the merged outcome of both fleet optimizations. Costs
// replays the travel matrix used during optimization, enabling edits
// to be re-scored without another round of provider calls.
type PlanResult struct {
	Plan     *domain.Plan
	Costs    *CostModel
	Warnings []string
}

// Planner runs the full pipeline: group riders into stops, geocode,
// build one travel matrix over every routable address, and optimize
// each fleet. The standard and accessibility fleets operate over
// disjoint stop sets and disjoint vans, so their solves run
// concurrently over per-fleet views of the shared matrix.
type Planner struct {
	resolver  *AddressResolver
	matrices  *MatrixBuilder
	optimizer *Optimizer
}

func NewPlanner(resolver *AddressResolver, matrices *MatrixBuilder, optimizer *Optimizer) *Planner {
	return &Planner{resolver: resolver, matrices: matrices, optimizer: optimizer}
}

// Plan produces an optimized plan for the request. Individual geocode
// failures exclude their stops and surface as warnings; a depot that
// fails to geocode fails the whole call, since no route has a start or
// end without it.
func (pl *Planner) Plan(ctx context.Context, req PlanRequest) (_ *PlanResult, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if req.DepotAddress == "" {
		return nil, errors.New("plan: depot address must be non-empty")
	}

	depot, err := pl.resolver.Resolve(ctx, req.DepotAddress)
	if err != nil {
		return nil, &InfeasibleError{Reason: fmt.Sprintf("depot %q could not be geocoded: %v", req.DepotAddress, err)}
	}

	stops := domain.GroupStops(req.Riders)
	log.Printf("planning run: depot=%q riders=%d stops=%d", req.DepotAddress, len(req.Riders), len(stops))

	addresses := make([]string, len(stops))
	for i := range stops {
		addresses[i] = stops[i].Address
	}
	resolved, failed, err := pl.resolver.ResolveAll(ctx, addresses)
	if err != nil {
		return nil, err
	}

	var warnings []string
	unresolved := make([]string, 0, len(failed))
	for _, f := range failed {
		unresolved = append(unresolved, f.Address)
		warnings = append(warnings, fmt.Sprintf("address %q excluded: %v", f.Address, f.Err))
	}

	// The matrix covers both fleets' addresses so the cost model can
	// re-score cross-fleet edits with real legs. Each fleet solves over
	// its own view of it.
	points := []domain.Coordinates{depot}
	keptAddresses := make([]string, 0, len(resolved))
	standard := fleetRun{profiles: req.StandardVans, firstVehicleID: 1}
	access := fleetRun{profiles: req.AccessibilityVans, firstVehicleID: 1 + len(req.StandardVans)}
	for _, r := range resolved {
		points = append(points, r.Coords)
		keptAddresses = append(keptAddresses, r.Address)

		run := &standard
		if stops[r.Index].RequiresAccessibility {
			run = &access
		}
		run.stops = append(run.stops, stops[r.Index])
		run.pts = append(run.pts, len(points)-1)
	}

	if len(keptAddresses) == 0 {
		// Nothing routable at all; do not bother the oracle.
		plan := emptyFleetPlan(&standard)
		plan.Merge(emptyFleetPlan(&access))
		plan.Unassigned = append(plan.Unassigned, unresolved...)
		plan.Feasible = len(plan.Unassigned) == 0
		return &PlanResult{
			Plan:     plan,
			Costs:    NewCostModel(req.DepotAddress, nil, domain.NewTravelMatrix(1)),
			Warnings: warnings,
		}, nil
	}

	matrix, err := pl.matrices.Build(ctx, points)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	for _, run := range []*fleetRun{&standard, &access} {
		wg.Add(1)
		go func(run *fleetRun) {
			defer wg.Done()
			run.plan, run.err = pl.optimizer.Optimize(ctx, OptimizeRequest{
				Stops:          run.stops,
				Profiles:       run.profiles,
				Matrix:         subMatrix(matrix, run.pts),
				FirstVehicleID: run.firstVehicleID,
			})
		}(run)
	}
	wg.Wait()

	if standard.err != nil {
		return nil, standard.err
	}
	if access.err != nil {
		return nil, access.err
	}

	plan := standard.plan
	plan.Merge(access.plan)
	plan.Unassigned = append(plan.Unassigned, unresolved...)
	plan.Feasible = len(plan.Unassigned) == 0

	return &PlanResult{
		Plan:     plan,
		Costs:    NewCostModel(req.DepotAddress, keptAddresses, matrix),
		Warnings: warnings,
	}, nil
}

// fleetRun carries one fleet's slice of the problem in and results out
// of its solve goroutine. pts maps each of the fleet's stops to its
// index in the shared matrix. Nothing here is shared between the two
// runs.
type fleetRun struct {
	stops          []domain.Stop
	pts            []int
	profiles       []domain.CapacityProfile
	firstVehicleID int

	plan *domain.Plan
	err  error
}

func emptyFleetPlan(run *fleetRun) *domain.Plan {
	plan := &domain.Plan{Feasible: true}
	for v, p := range run.profiles {
		plan.Routes = append(plan.Routes, domain.Route{
			VehicleID: run.firstVehicleID + v,
			Profile:   p,
		})
	}
	return plan
}

// subMatrix extracts the depot row and column plus the given point
// indices into a fleet-local matrix, preserving order. Index 0 of the
// result is the depot; legs are shared with the source, not copied.
func subMatrix(m *domain.TravelMatrix, pts []int) *domain.TravelMatrix {
	idx := make([]int, 0, len(pts)+1)
	idx = append(idx, 0)
	idx = append(idx, pts...)

	out := domain.NewTravelMatrix(len(idx))
	for i, from := range idx {
		for j, to := range idx {
			out.Legs[i][j] = m.At(from, to)
		}
	}
	return out
}
