package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"van-route-service/internal/api/dto"
	"van-route-service/internal/config"
	"van-route-service/internal/domain"
	"van-route-service/internal/ports"
	"van-route-service/internal/services"
)

// stubGeocoder resolves any address to distinct coordinates in arrival
// order, except those listed as unknown.
type stubGeocoder struct {
	unknown map[string]bool

	mu     sync.Mutex
	next   float64
	coords map[string]domain.Coordinates
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unknown[address] {
		return domain.Coordinates{}, &ports.GeocodeError{Address: address, Reason: "no results"}
	}
	if g.coords == nil {
		g.coords = map[string]domain.Coordinates{}
	}
	if c, ok := g.coords[address]; ok {
		return c, nil
	}
	g.next++
	c := domain.Coordinates{Lat: g.next}
	g.coords[address] = c
	return c, nil
}

// stubOracle reports a flat 100 seconds between any two points.
type stubOracle struct{}

func (stubOracle) MatrixBlock(ctx context.Context, origins, destinations []domain.Coordinates) ([][]*domain.Leg, error) {
	block := make([][]*domain.Leg, len(origins))
	for i := range origins {
		block[i] = make([]*domain.Leg, len(destinations))
		for j := range destinations {
			block[i][j] = &domain.Leg{DurationSeconds: 100, DistanceMeters: 1000}
		}
	}
	return block, nil
}

func (stubOracle) MaxElements() int { return 100 }

func newTestRouter(geocoder ports.Geocoder) http.Handler {
	resolver := services.NewAddressResolver(geocoder, nil)
	matrices := services.NewMatrixBuilder(stubOracle{})
	optimizer := &services.Optimizer{Balance: 3.0, TimeBudget: 50 * time.Millisecond, Seed: 1}
	planner := services.NewPlanner(resolver, matrices, optimizer)

	return NewRouter(planner, config.Fleet{
		StandardVans:                     1,
		AccessibilityVans:                1,
		VanCapacity:                      10,
		AccessibilitySeatsPerVan:         6,
		StandardSeatsPerAccessibilityVan: 1,
	})
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodePlan(t *testing.T, rec *httptest.ResponseRecorder) dto.PlanResponse {
	t.Helper()
	var res dto.PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res
}

func createPlan(t *testing.T, handler http.Handler) dto.PlanResponse {
	t.Helper()
	rec := postJSON(t, handler, "/plans", dto.PlanRequest{
		Depot: "DEPOT",
		Riders: []dto.RiderInput{
			{Name: "sam", Address: "W"},
			{Name: "pat", Address: "W"},
			{Name: "y1", Address: "Y"},
			{Name: "x1", Address: "X", Wheelchair: "y"},
			{Name: "x2", Address: "X", Wheelchair: "Yes"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plan: status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodePlan(t, rec)
}

func TestCreateAndFetchPlan(t *testing.T) {
	handler := newTestRouter(&stubGeocoder{})
	created := createPlan(t, handler)

	if created.ID == "" || !created.Feasible {
		t.Fatalf("created = %+v, want feasible plan with id", created)
	}
	if len(created.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(created.Routes))
	}

	var accessibility *dto.RouteResponse
	for i := range created.Routes {
		if created.Routes[i].Accessibility {
			accessibility = &created.Routes[i]
		}
	}
	if accessibility == nil || accessibility.TotalLoad != 2 {
		t.Fatalf("accessibility route = %+v, want the two wheelchair riders", accessibility)
	}

	req := httptest.NewRequest(http.MethodGet, "/plans/"+created.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get plan: status %d", rec.Code)
	}
	fetched := decodePlan(t, rec)
	if fetched.ID != created.ID || len(fetched.Routes) != 2 {
		t.Fatalf("fetched = %+v", fetched)
	}
}

func TestEditConflictNamesViolatedRule(t *testing.T) {
	handler := newTestRouter(&stubGeocoder{})
	created := createPlan(t, handler)

	standardID, accessID := fleetIDs(t, created)

	// First standard rider fits in the accessibility van's single
	// overflow seat.
	rec := postJSON(t, handler, "/plans/"+created.ID+"/edits", dto.EditRequest{
		Kind:          "move_rider",
		Rider:         "y1",
		FromVehicleID: standardID,
		FromAddress:   "Y",
		ToVehicleID:   accessID,
		ToAddress:     "Y",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("first move: status %d, body %s", rec.Code, rec.Body.String())
	}

	// The second one must bounce off the standard-seat sub-limit.
	rec = postJSON(t, handler, "/plans/"+created.ID+"/edits", dto.EditRequest{
		Kind:          "move_rider",
		Rider:         "sam",
		FromVehicleID: standardID,
		FromAddress:   "W",
		ToVehicleID:   accessID,
		ToAddress:     "W",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second move: status %d, want 409", rec.Code)
	}

	var res dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if res.Rule != "standard-seat-limit" {
		t.Fatalf("rule = %q, want standard-seat-limit", res.Rule)
	}
}

func TestResetRestoresOptimizedPlan(t *testing.T) {
	handler := newTestRouter(&stubGeocoder{})
	created := createPlan(t, handler)
	standardID, accessID := fleetIDs(t, created)

	rec := postJSON(t, handler, "/plans/"+created.ID+"/edits", dto.EditRequest{
		Kind:          "move_rider",
		Rider:         "y1",
		FromVehicleID: standardID,
		FromAddress:   "Y",
		ToVehicleID:   accessID,
		ToAddress:     "Y",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: status %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/plans/"+created.ID+"/reset", nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec2.Code)
	}

	restored := decodePlan(t, rec2)
	for _, route := range restored.Routes {
		if route.VehicleID == accessID && route.TotalLoad != 2 {
			t.Fatalf("accessibility load after reset = %d, want 2", route.TotalLoad)
		}
		if route.VehicleID == standardID && route.TotalLoad != 3 {
			t.Fatalf("standard load after reset = %d, want 3", route.TotalLoad)
		}
	}
}

func TestPlanValidationAndNotFound(t *testing.T) {
	handler := newTestRouter(&stubGeocoder{})

	rec := postJSON(t, handler, "/plans", dto.PlanRequest{Depot: "DEPOT"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty riders: status %d, want 400", rec.Code)
	}

	rec = postJSON(t, handler, "/plans", dto.PlanRequest{
		Riders: []dto.RiderInput{{Name: "sam", Address: "W"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing depot: status %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/plans/nope", nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status %d, want 404", rec2.Code)
	}
}

func TestPlanDepotGeocodeFailureIsUnprocessable(t *testing.T) {
	handler := newTestRouter(&stubGeocoder{unknown: map[string]bool{"DEPOT": true}})

	rec := postJSON(t, handler, "/plans", dto.PlanRequest{
		Depot:  "DEPOT",
		Riders: []dto.RiderInput{{Name: "sam", Address: "W"}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rec.Code)
	}
}

func fleetIDs(t *testing.T, plan dto.PlanResponse) (standardID, accessID int) {
	t.Helper()
	standardID, accessID = -1, -1
	for _, r := range plan.Routes {
		if r.Accessibility {
			accessID = r.VehicleID
		} else {
			standardID = r.VehicleID
		}
	}
	if standardID == -1 || accessID == -1 {
		t.Fatalf("plan lacks one fleet: %+v", plan.Routes)
	}
	return standardID, accessID
}
