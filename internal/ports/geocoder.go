package ports

import (
	"context"
	"fmt"

	"van-route-service/internal/domain"
)

// Contract for turning a free-text address into coordinates.
type Geocoder interface {
	// Geocode resolves one address. A definitive "not found" is
	// reported as *GeocodeError; transport failures may be wrapped in
	// any other error.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

// GeocodeError marks an address the oracle could not resolve. It is
// definitive: retrying the same address will not help.
type GeocodeError struct {
	Address string
	Reason  string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocode %q: %s", e.Address, e.Reason)
}
