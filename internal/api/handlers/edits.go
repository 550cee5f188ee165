package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"van-route-service/internal/api/dto"
	"van-route-service/internal/services"
)

type EditHandler struct {
	Sessions *SessionStore
}

// Edit applies one atomic edit to a session's plan. Constraint
// violations leave the plan untouched and come back as 409 with the
// violated rule named.
func (h *EditHandler) Edit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "no such plan")
		return
	}

	var req dto.EditRequest

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

	edit, err := editFromDTO(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := session.Edit(edit)
	if err != nil {
		var violation *services.ConstraintViolation
		if errors.As(err, &violation) {
			writeServiceError(w, r, err)
			return
		}
		// Anything else references a vehicle, stop, or rider the plan
		// does not have.
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, planResponse(session, plan))
}

// Reset discards every edit and restores the optimized plan.
func (h *EditHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "no such plan")
		return
	}
	writeJSON(w, r, http.StatusOK, planResponse(session, session.Reset()))
}

func editFromDTO(req dto.EditRequest) (services.Edit, error) {
	switch req.Kind {
	case "move_rider":
		if req.Rider == "" || req.FromAddress == "" || req.ToAddress == "" {
			return nil, fmt.Errorf("move_rider requires rider, from_address, and to_address")
		}
		insertAt := -1
		if req.InsertAt != nil {
			insertAt = *req.InsertAt
		}
		return services.MoveRiderEdit{
			Rider:         req.Rider,
			FromVehicleID: req.FromVehicleID,
			FromAddress:   req.FromAddress,
			ToVehicleID:   req.ToVehicleID,
			ToAddress:     req.ToAddress,
			InsertAt:      insertAt,
		}, nil

	case "reorder_stops":
		return services.ReorderStopsEdit{
			VehicleID: req.VehicleID,
			Order:     req.Order,
		}, nil

	case "reorder_riders":
		if req.Address == "" {
			return nil, fmt.Errorf("reorder_riders requires address")
		}
		return services.ReorderRidersEdit{
			VehicleID: req.VehicleID,
			Address:   req.Address,
			Riders:    req.Riders,
		}, nil

	default:
		return nil, fmt.Errorf("unknown edit kind %q", req.Kind)
	}
}
