package ports

import (
	"context"

	"van-route-service/internal/domain"
)

// Port: a persistent cache of address -> coordinates lookups, shared
// across optimization sessions. Address keys are stored exactly as
// given (case-sensitive).
type GeocodeCache interface {
	// Fetch cached coordinates for the given addresses. Missing
	// addresses are simply absent from the result.
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)

	// Store address -> coordinate mappings.
	PutMany(ctx context.Context, coords map[string]domain.Coordinates) error
}
