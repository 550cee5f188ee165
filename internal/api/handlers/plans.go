package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"van-route-service/internal/api/dto"
	"van-route-service/internal/config"
	"van-route-service/internal/domain"
	"van-route-service/internal/services"
)

type PlanHandler struct {
	Planner  *services.Planner
	Sessions *SessionStore
	Defaults config.Fleet
}

// Create runs a full optimization for the posted rider list and opens
// an editing session around the result.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	fleet := h.fleetFor(req)

	depot := strings.TrimSpace(req.Depot)
	if depot == "" {
		depot = strings.TrimSpace(fleet.DepotAddress)
	}
	if depot == "" {
		writeError(w, r, http.StatusBadRequest, "depot is required")
		return
	}

	if len(req.Riders) == 0 {
		writeError(w, r, http.StatusBadRequest, "riders must be non-empty")
		return
	}
	if fleet.StandardVans+fleet.AccessibilityVans < 1 {
		writeError(w, r, http.StatusBadRequest, "at least one van is required")
		return
	}
	if fleet.VanCapacity < 1 || fleet.VanCapacity > 100 {
		writeError(w, r, http.StatusBadRequest, "van_capacity must be between 1 and 100")
		return
	}

	riders := make([]domain.RiderRecord, 0, len(req.Riders))
	for i, in := range req.Riders {
		name := strings.TrimSpace(in.Name)
		address := strings.TrimSpace(in.Address)
		if name == "" || address == "" {
			writeError(w, r, http.StatusBadRequest,
				fmt.Sprintf("rider %d: name and address are required", i))
			return
		}
		riders = append(riders, domain.RiderRecord{
			Name:                  name,
			Address:               address,
			RequiresAccessibility: domain.ParseAccessibilityFlag(in.Wheelchair),
		})
	}

	result, err := h.Planner.Plan(r.Context(), services.PlanRequest{
		DepotAddress:      depot,
		Riders:            riders,
		StandardVans:      fleet.StandardProfiles(),
		AccessibilityVans: fleet.AccessibilityProfiles(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	session := h.Sessions.Create(result.Plan, result.Costs, result.Warnings)
	writeJSON(w, r, http.StatusCreated, planResponse(session, session.View()))
}

// Get returns a session's current plan, edits included.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "no such plan")
		return
	}
	writeJSON(w, r, http.StatusOK, planResponse(session, session.View()))
}

// fleetFor overlays request-level fleet overrides on the configured
// defaults. Vans counts of zero mean "use the default"; clients that
// genuinely want zero vans of a class set the other class explicitly.
func (h *PlanHandler) fleetFor(req dto.PlanRequest) config.Fleet {
	fleet := h.Defaults
	if req.StandardVans > 0 || req.AccessibilityVans > 0 {
		fleet.StandardVans = req.StandardVans
		fleet.AccessibilityVans = req.AccessibilityVans
	}
	if req.VanCapacity > 0 {
		fleet.VanCapacity = req.VanCapacity
	}
	if req.AccessibilitySeatsPerVan > 0 {
		fleet.AccessibilitySeatsPerVan = req.AccessibilitySeatsPerVan
	}
	if req.StandardSeatsPerAccessibilityVan > 0 {
		fleet.StandardSeatsPerAccessibilityVan = req.StandardSeatsPerAccessibilityVan
	}
	return fleet
}
