package domain

import (
	"reflect"
	"testing"
)

func testPlan() *Plan {
	return &Plan{
		Feasible: true,
		Routes: []Route{
			{
				VehicleID: 1,
				Profile:   StandardProfile(10),
				Stops: []Stop{
					{Address: "A", Riders: []string{"ana", "ben"}},
					{Address: "B", Riders: []string{"cam"}},
				},
			},
			{
				VehicleID: 2,
				Profile:   AccessibilityProfile(6, 1),
				Stops: []Stop{
					{Address: "C", Riders: []string{"dee"}, RequiresAccessibility: true},
				},
			},
		},
		Unassigned: []string{"Z"},
	}
}

func TestPlanCloneIsDeep(t *testing.T) {
	original := testPlan()
	clone := original.Clone()

	clone.Routes[0].Stops[0].Riders[0] = "mallory"
	clone.Routes[1].Stops = nil
	clone.Unassigned[0] = "Q"

	if original.Routes[0].Stops[0].Riders[0] != "ana" {
		t.Fatal("clone shares rider slice with original")
	}
	if len(original.Routes[1].Stops) != 1 {
		t.Fatal("clone shares stops slice with original")
	}
	if original.Unassigned[0] != "Z" {
		t.Fatal("clone shares unassigned slice with original")
	}
}

func TestPlanRouteLookup(t *testing.T) {
	plan := testPlan()
	if r := plan.Route(2); r == nil || r.VehicleID != 2 {
		t.Fatalf("Route(2) = %+v, want vehicle 2", r)
	}
	if r := plan.Route(99); r != nil {
		t.Fatalf("Route(99) = %+v, want nil", r)
	}
}

func TestPlanRiderNames(t *testing.T) {
	got := testPlan().RiderNames()
	want := []string{"ana", "ben", "cam", "dee"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RiderNames = %v, want %v", got, want)
	}
}

func TestPlanMerge(t *testing.T) {
	a := &Plan{Feasible: true, Routes: []Route{{VehicleID: 1}}}
	b := &Plan{Feasible: false, Routes: []Route{{VehicleID: 2}}, Unassigned: []string{"X"}}

	a.Merge(b)
	if a.Feasible {
		t.Fatal("merged plan must inherit infeasibility")
	}
	if len(a.Routes) != 2 || a.Routes[1].VehicleID != 2 {
		t.Fatalf("merged routes = %+v", a.Routes)
	}
	if len(a.Unassigned) != 1 || a.Unassigned[0] != "X" {
		t.Fatalf("merged unassigned = %v", a.Unassigned)
	}
}

func TestRouteLoadsAndEmptyStops(t *testing.T) {
	route := &Route{
		Profile: AccessibilityProfile(6, 2),
		Stops: []Stop{
			{Address: "A", Riders: []string{"ana", "ben"}, RequiresAccessibility: true},
			{Address: "B", Riders: []string{}},
			{Address: "C", Riders: []string{"cam"}},
		},
	}

	if route.TotalLoad() != 3 || route.AccessibilityLoad() != 2 || route.StandardLoad() != 1 {
		t.Fatalf("loads = %d/%d/%d, want 3/2/1",
			route.TotalLoad(), route.AccessibilityLoad(), route.StandardLoad())
	}

	route.RemoveEmptyStops()
	if len(route.Stops) != 2 {
		t.Fatalf("expected empty stop removed, got %+v", route.Stops)
	}
	if route.StopIndex("C", false) != 1 {
		t.Fatalf("StopIndex(C) = %d, want 1", route.StopIndex("C", false))
	}
	if route.StopIndex("A", false) != -1 {
		t.Fatal("StopIndex must distinguish rider class")
	}
}
