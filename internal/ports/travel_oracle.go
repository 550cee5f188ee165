package ports

import (
	"context"

	"van-route-service/internal/domain"
)

// Contract for retrieving pairwise travel costs from the mapping
// provider. The provider caps the number of origin-destination elements
// per request; callers chunk larger queries accordingly.
type TravelOracle interface {
	// MatrixBlock returns one leg per (origin, destination) pair, shaped
	// [len(origins)][len(destinations)]. A nil leg means the provider
	// reported the pair unreachable. len(origins)*len(destinations) must
	// not exceed MaxElements.
	MatrixBlock(ctx context.Context, origins, destinations []domain.Coordinates) ([][]*domain.Leg, error)

	// MaxElements is the provider's per-request element limit.
	MaxElements() int
}
