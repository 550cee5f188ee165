package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"van-route-service/internal/domain"
)

// matrixFromSeconds builds a travel matrix from a seconds grid; -1
// marks an unreachable pair. Distances are derived as seconds * 10.
func matrixFromSeconds(grid [][]int) *domain.TravelMatrix {
	m := domain.NewTravelMatrix(len(grid))
	for i, row := range grid {
		for j, sec := range row {
			if sec < 0 {
				continue
			}
			m.Legs[i][j] = &domain.Leg{DurationSeconds: sec, DistanceMeters: sec * 10}
		}
	}
	return m
}

func testOptimizer() *Optimizer {
	return &Optimizer{Balance: 3.0, TimeBudget: 50 * time.Millisecond, Seed: 1}
}

func TestOptimizeDistributesAcrossBothVans(t *testing.T) {
	// Depot D, stops A (4 riders), B (7 riders), C (3 riders), two vans
	// of capacity 10. Total load 14 <= 20: must be feasible with both
	// vans in use.
	stops := []domain.Stop{
		{Address: "A", Riders: []string{"a1", "a2", "a3", "a4"}},
		{Address: "B", Riders: []string{"b1", "b2", "b3", "b4", "b5", "b6", "b7"}},
		{Address: "C", Riders: []string{"c1", "c2", "c3"}},
	}
	matrix := matrixFromSeconds([][]int{
		{0, 300, 600, 450},
		{300, 0, 240, 210},
		{600, 240, 0, 270},
		{450, 210, 270, 0},
	})

	plan, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10), domain.StandardProfile(10)},
		Matrix:         matrix,
		FirstVehicleID: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !plan.Feasible {
		t.Fatal("expected feasible plan")
	}
	if len(plan.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(plan.Routes))
	}
	for _, r := range plan.Routes {
		if len(r.Stops) == 0 {
			t.Fatalf("vehicle %d left empty with 3 stops and 2 vans", r.VehicleID)
		}
		if r.TotalLoad() > 10 {
			t.Fatalf("vehicle %d overloaded: %d riders", r.VehicleID, r.TotalLoad())
		}
		if r.TotalDurationSeconds <= 0 {
			t.Fatalf("vehicle %d has no duration", r.VehicleID)
		}
	}

	want := []string{
		"a1", "a2", "a3", "a4",
		"b1", "b2", "b3", "b4", "b5", "b6", "b7",
		"c1", "c2", "c3",
	}
	if got := plan.RiderNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("riders = %v, want %v", got, want)
	}
}

func TestOptimizeOversizedStopIsInfeasible(t *testing.T) {
	riders := make([]string, 11)
	for i := range riders {
		riders[i] = "r" + string(rune('a'+i))
	}
	stops := []domain.Stop{{Address: "14 Birch Ct", Riders: riders}}
	matrix := matrixFromSeconds([][]int{
		{0, 100},
		{100, 0},
	})

	_, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10)},
		Matrix:         matrix,
		FirstVehicleID: 1,
	})

	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("error = %v, want *InfeasibleError", err)
	}
	if !strings.Contains(infeasible.Reason, "14 Birch Ct") {
		t.Fatalf("reason %q does not name the oversized stop", infeasible.Reason)
	}
}

func TestOptimizeExcludesDepotUnreachableStop(t *testing.T) {
	// Stop Z has no route from the depot; A and B must still be
	// optimized normally.
	stops := []domain.Stop{
		{Address: "A", Riders: []string{"a1"}},
		{Address: "Z", Riders: []string{"z1"}},
		{Address: "B", Riders: []string{"b1"}},
	}
	matrix := matrixFromSeconds([][]int{
		{0, 300, -1, 450},
		{300, 0, -1, 210},
		{-1, -1, 0, -1},
		{450, 210, -1, 0},
	})

	plan, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10)},
		Matrix:         matrix,
		FirstVehicleID: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(plan.Unassigned, []string{"Z"}) {
		t.Fatalf("unassigned = %v, want [Z]", plan.Unassigned)
	}
	if got := plan.RiderNames(); !reflect.DeepEqual(got, []string{"a1", "b1"}) {
		t.Fatalf("routed riders = %v, want [a1 b1]", got)
	}
	if plan.Feasible {
		t.Fatal("a plan with an excluded stop must not report feasible")
	}
}

func TestOptimizeStopsEarlyWhenSearchIsExhausted(t *testing.T) {
	// Two single-rider stops on two vans under the spread policy: no
	// route can donate a stop, so the search has nowhere left to go and
	// must return well before the deadline.
	stops := []domain.Stop{
		{Address: "A", Riders: []string{"a1"}},
		{Address: "B", Riders: []string{"b1"}},
	}
	matrix := matrixFromSeconds([][]int{
		{0, 300, 600},
		{300, 0, 240},
		{600, 240, 0},
	})

	opt := &Optimizer{Balance: 3.0, TimeBudget: 2 * time.Second, Seed: 1}
	start := time.Now()
	plan, err := opt.Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10), domain.StandardProfile(10)},
		Matrix:         matrix,
		FirstVehicleID: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("optimize spent %s with nothing left to search", elapsed)
	}

	for _, r := range plan.Routes {
		if len(r.Stops) != 1 {
			t.Fatalf("vehicle %d has %d stops, want 1", r.VehicleID, len(r.Stops))
		}
	}
}

func TestOptimizeAccessibilityStopNeedsEligibleVan(t *testing.T) {
	stops := []domain.Stop{
		{Address: "X", Riders: []string{"x1"}, RequiresAccessibility: true},
	}
	matrix := matrixFromSeconds([][]int{
		{0, 100},
		{100, 0},
	})

	_, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10)},
		Matrix:         matrix,
		FirstVehicleID: 1,
	})

	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("error = %v, want *InfeasibleError", err)
	}
}

func TestOptimizeRespectsDualCapacityDimensions(t *testing.T) {
	// One accessibility van {6 accessibility, 1 standard}: 4
	// accessibility riders at X plus 1 standard rider at Y fit; a
	// second standard stop cannot.
	stops := []domain.Stop{
		{Address: "X", Riders: []string{"x1", "x2", "x3", "x4"}, RequiresAccessibility: true},
		{Address: "Y", Riders: []string{"y1"}},
	}
	matrix := matrixFromSeconds([][]int{
		{0, 120, 180},
		{120, 0, 90},
		{180, 90, 0},
	})

	plan, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.AccessibilityProfile(6, 1)},
		Matrix:         matrix,
		FirstVehicleID: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	route := plan.Route(4)
	if route == nil || route.AccessibilityLoad() != 4 || route.StandardLoad() != 1 {
		t.Fatalf("route = %+v, want loads 4/1", route)
	}

	// Same fleet, one standard rider too many.
	stops[1].Riders = []string{"y1", "y2"}
	_, err = testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.AccessibilityProfile(6, 1)},
		Matrix:         matrix,
		FirstVehicleID: 4,
	})
	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("error = %v, want *InfeasibleError", err)
	}
}

func TestOptimizeEmptyStopsYieldsEmptyPlan(t *testing.T) {
	plan, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          nil,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10)},
		Matrix:         domain.NewTravelMatrix(1),
		FirstVehicleID: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Feasible || len(plan.Routes) != 1 || len(plan.Routes[0].Stops) != 0 {
		t.Fatalf("plan = %+v, want one empty feasible route", plan)
	}
}

func TestCostModelReplayMatchesOptimizerMetrics(t *testing.T) {
	stops := []domain.Stop{
		{Address: "A", Riders: []string{"a1", "a2"}},
		{Address: "B", Riders: []string{"b1"}},
		{Address: "C", Riders: []string{"c1"}},
	}
	matrix := matrixFromSeconds([][]int{
		{0, 300, 600, 450},
		{310, 0, 240, 210},
		{620, 250, 0, 270},
		{460, 220, 280, 0},
	})

	plan, err := testOptimizer().Optimize(context.Background(), OptimizeRequest{
		Stops:          stops,
		Profiles:       []domain.CapacityProfile{domain.StandardProfile(10)},
		Matrix:         matrix,
		FirstVehicleID: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	costs := NewCostModel("DEPOT", []string{"A", "B", "C"}, matrix)
	for i := range plan.Routes {
		meters, seconds := costs.RouteMetrics(&plan.Routes[i])
		if meters != plan.Routes[i].TotalDistanceMeters || seconds != plan.Routes[i].TotalDurationSeconds {
			t.Fatalf("replay = %d m / %d s, optimizer reported %d m / %d s",
				meters, seconds,
				plan.Routes[i].TotalDistanceMeters, plan.Routes[i].TotalDurationSeconds)
		}
	}
}
