package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"van-route-service/internal/api/dto"
	"van-route-service/internal/domain"
	"van-route-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// writeServiceError maps service-layer failures onto HTTP statuses:
// infeasible problems are the client's data (422), constraint
// violations are conflicts with the current plan (409), and oracle
// trouble is an upstream failure (502).
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var infeasible *services.InfeasibleError
	if errors.As(err, &infeasible) {
		writeError(w, r, http.StatusUnprocessableEntity, infeasible.Error())
		return
	}

	var violation *services.ConstraintViolation
	if errors.As(err, &violation) {
		writeJSON(w, r, http.StatusConflict, dto.ErrorResponse{
			Error: violation.Detail,
			Rule:  violation.Rule,
		})
		return
	}

	var matrix *services.MatrixError
	if errors.As(err, &matrix) {
		log.Printf("travel oracle failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "travel matrix provider unavailable")
		return
	}

	log.Printf("request failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}

func planResponse(session *PlanSession, plan *domain.Plan) dto.PlanResponse {
	res := dto.PlanResponse{
		ID:         session.ID,
		Feasible:   plan.Feasible,
		Routes:     make([]dto.RouteResponse, 0, len(plan.Routes)),
		Unassigned: plan.Unassigned,
		Warnings:   session.Warnings,
	}
	if res.Unassigned == nil {
		res.Unassigned = []string{}
	}

	for i := range plan.Routes {
		route := &plan.Routes[i]
		stops := make([]dto.StopResponse, 0, len(route.Stops))
		for _, s := range route.Stops {
			stops = append(stops, dto.StopResponse{
				Address:               s.Address,
				Riders:                s.Riders,
				RequiresAccessibility: s.RequiresAccessibility,
			})
		}
		res.Routes = append(res.Routes, dto.RouteResponse{
			VehicleID:            route.VehicleID,
			Accessibility:        route.Profile.IsAccessibility(),
			Stops:                stops,
			TotalLoad:            route.TotalLoad(),
			TotalDistanceMeters:  route.TotalDistanceMeters,
			TotalDurationSeconds: route.TotalDurationSeconds,
		})
	}
	return res
}
