package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/metrics"
	"van-route-service/internal/platform/obs"
	"van-route-service/internal/ports"
)

// Resolution is a successfully geocoded address, tagged with its index
// in the input slice so callers can align results back to stops.
type Resolution struct {
	Index   int
	Address string
	Coords  domain.Coordinates
}

// GeocodeFailure is an address that could not be resolved, tagged the
// same way.
type GeocodeFailure struct {
	Index   int
	Address string
	Err     error
}

// AddressResolver turns free-text addresses into coordinates.
//
// It layers two caches in front of the geocoder: an in-memory map keyed
// by the exact address string for the life of the process, and an
// optional persistent cache shared across restarts. Repeated resolution
// of the same literal string is common and geocoding is rate-limited,
// so both layers pay for themselves quickly.
//
// The resolver is safe for concurrent use.
type AddressResolver struct {
	geocoder ports.Geocoder
	cache    ports.GeocodeCache // optional

	mu  sync.Mutex
	mem map[string]domain.Coordinates
}

func NewAddressResolver(geocoder ports.Geocoder, cache ports.GeocodeCache) *AddressResolver {
	return &AddressResolver{
		geocoder: geocoder,
		cache:    cache,
		mem:      make(map[string]domain.Coordinates),
	}
}

// Resolve geocodes a single address, consulting the caches first.
func (r *AddressResolver) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	if address == "" {
		return domain.Coordinates{}, errors.New("resolve address: address must be non-empty")
	}

	if coords, ok := r.fromMemory(address); ok {
		metrics.GeocodeLookups.WithLabelValues("memory").Inc()
		return coords, nil
	}

	if r.cache != nil {
		hits, err := r.cache.GetMany(ctx, []string{address})
		if err != nil {
			// Cache trouble must not take down geocoding.
			log.Printf("geocode cache read failed: addr=%q err=%v", address, err)
		} else if coords, ok := hits[address]; ok {
			metrics.GeocodeLookups.WithLabelValues("cache").Inc()
			r.remember(address, coords)
			return coords, nil
		}
	}

	coords, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return domain.Coordinates{}, fmt.Errorf("resolve address: %w", err)
	}
	metrics.GeocodeLookups.WithLabelValues("oracle").Inc()

	r.remember(address, coords)
	if r.cache != nil {
		if err := r.cache.PutMany(ctx, map[string]domain.Coordinates{address: coords}); err != nil {
			log.Printf("geocode cache write failed: addr=%q err=%v", address, err)
		}
	}

	return coords, nil
}

// ResolveAll resolves every address independently, continuing past
// individual failures so one bad address does not abort the batch.
// Both result slices carry the original input indices.
func (r *AddressResolver) ResolveAll(ctx context.Context, addresses []string) (_ []Resolution, _ []GeocodeFailure, err error) {
	defer obs.Time(ctx, "resolver.ResolveAll")(&err)

	resolved := make([]Resolution, 0, len(addresses))
	failed := make([]GeocodeFailure, 0)

	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		coords, err := r.Resolve(ctx, addr)
		if err != nil {
			failed = append(failed, GeocodeFailure{Index: i, Address: addr, Err: err})
			continue
		}
		resolved = append(resolved, Resolution{Index: i, Address: addr, Coords: coords})
	}

	if len(failed) > 0 {
		log.Printf("geocoding finished with failures: ok=%d failed=%d", len(resolved), len(failed))
	}

	return resolved, failed, nil
}

func (r *AddressResolver) fromMemory(address string) (domain.Coordinates, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	coords, ok := r.mem[address]
	return coords, ok
}

func (r *AddressResolver) remember(address string, coords domain.Coordinates) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mem[address] = coords
}
