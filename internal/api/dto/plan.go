package dto

// RiderInput is one row of the master rider list as it arrives on the
// wire. Wheelchair carries the sheet's free-form accessibility marker
// ("y", "Yes", "TRUE", "1", blank); normalization happens once at stop
// construction.
type RiderInput struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Wheelchair string `json:"wheelchair"`
}

type PlanRequest struct {
	Depot  string       `json:"depot"`
	Riders []RiderInput `json:"riders"`

	// Optional fleet overrides; zero values fall back to server config.
	StandardVans                     int `json:"standard_vans"`
	AccessibilityVans                int `json:"accessibility_vans"`
	VanCapacity                      int `json:"van_capacity"`
	AccessibilitySeatsPerVan         int `json:"accessibility_seats_per_van"`
	StandardSeatsPerAccessibilityVan int `json:"standard_seats_per_accessibility_van"`
}

type StopResponse struct {
	Address               string   `json:"address"`
	Riders                []string `json:"riders"`
	RequiresAccessibility bool     `json:"requires_accessibility"`
}

type RouteResponse struct {
	VehicleID            int            `json:"vehicle_id"`
	Accessibility        bool           `json:"accessibility"`
	Stops                []StopResponse `json:"stops"`
	TotalLoad            int            `json:"total_load"`
	TotalDistanceMeters  int            `json:"total_distance_meters"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
}

type PlanResponse struct {
	ID         string          `json:"id"`
	Feasible   bool            `json:"feasible"`
	Routes     []RouteResponse `json:"routes"`
	Unassigned []string        `json:"unassigned"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// EditRequest is one atomic plan edit. Kind selects which of the field
// groups applies: "move_rider", "reorder_stops", or "reorder_riders".
type EditRequest struct {
	Kind string `json:"kind"`

	// move_rider
	Rider         string `json:"rider,omitempty"`
	FromVehicleID int    `json:"from_vehicle_id,omitempty"`
	FromAddress   string `json:"from_address,omitempty"`
	ToVehicleID   int    `json:"to_vehicle_id,omitempty"`
	ToAddress     string `json:"to_address,omitempty"`
	InsertAt      *int   `json:"insert_at,omitempty"`

	// reorder_stops and reorder_riders
	VehicleID int      `json:"vehicle_id,omitempty"`
	Order     []int    `json:"order,omitempty"`
	Address   string   `json:"address,omitempty"`
	Riders    []string `json:"riders,omitempty"`
}

// ErrorResponse is the uniform error body. Rule is set only for
// constraint violations.
type ErrorResponse struct {
	Error string `json:"error"`
	Rule  string `json:"rule,omitempty"`
}
