package domain

import "fmt"

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lng float64
}

// String renders "lat,lng", the waypoint form the mapping APIs accept.
func (c Coordinates) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}
