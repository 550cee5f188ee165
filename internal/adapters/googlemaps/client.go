// Package googlemaps adapts the Google Maps web services to the
// geocoding and travel-cost ports.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/metrics"
	"van-route-service/internal/ports"
)

const (
	// maxElementsPerRequest is the Distance Matrix API's cap on
	// origins x destinations per call.
	maxElementsPerRequest = 100

	// requestsPerSecond keeps us under the provider's default QPS quota.
	requestsPerSecond = 40

	// maxAttempts bounds retries of transient failures. Retries are
	// immediate; the rate limiter already spaces requests out.
	maxAttempts = 3
)

// Client implements ports.Geocoder and ports.TravelOracle against the
// Google Maps Geocoding and Distance Matrix APIs. Safe for concurrent
// use.
type Client struct {
	api     *maps.Client
	limiter *rate.Limiter
}

func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("googlemaps: API key must be non-empty")
	}
	api, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("googlemaps: create client: %w", err)
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}, nil
}

// Geocode resolves an address to coordinates. Zero results is a
// definitive not-found and returns a ports.GeocodeError without retry;
// network-class and quota failures are retried.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	var results []maps.GeocodingResult
	err := c.doWithRetry(ctx, "geocode", func() error {
		var err error
		results, err = c.api.Geocode(ctx, &maps.GeocodingRequest{Address: address})
		return err
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, &ports.GeocodeError{Address: address, Reason: "no results"}
	}

	loc := results[0].Geometry.Location
	return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// MatrixBlock fetches one chunk of the travel matrix. Element statuses
// other than OK (typically ZERO_RESULTS) yield nil legs, leaving the
// unreachable-pair decision to the caller.
func (c *Client) MatrixBlock(ctx context.Context, origins, destinations []domain.Coordinates) ([][]*domain.Leg, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      coordStrings(origins),
		Destinations: coordStrings(destinations),
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}

	var resp *maps.DistanceMatrixResponse
	err := c.doWithRetry(ctx, "matrix", func() error {
		var err error
		resp, err = c.api.DistanceMatrix(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("distance matrix %dx%d: %w", len(origins), len(destinations), err)
	}

	if len(resp.Rows) != len(origins) {
		return nil, fmt.Errorf("distance matrix: got %d rows, want %d", len(resp.Rows), len(origins))
	}

	block := make([][]*domain.Leg, len(origins))
	for i, row := range resp.Rows {
		if len(row.Elements) != len(destinations) {
			return nil, fmt.Errorf("distance matrix: row %d has %d elements, want %d",
				i, len(row.Elements), len(destinations))
		}
		block[i] = make([]*domain.Leg, len(destinations))
		for j, el := range row.Elements {
			if el.Status != "OK" {
				continue
			}
			block[i][j] = &domain.Leg{
				DistanceMeters:  el.Distance.Meters,
				DurationSeconds: int(el.Duration.Seconds()),
			}
		}
	}
	return block, nil
}

func (c *Client) MaxElements() int { return maxElementsPerRequest }

func (c *Client) doWithRetry(ctx context.Context, kind string, call func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err = call(); err == nil {
			metrics.OracleRequests.WithLabelValues(kind, "ok").Inc()
			return nil
		}
		metrics.OracleRequests.WithLabelValues(kind, "error").Inc()
		if !isTransient(err) {
			return err
		}
		log.Printf("maps %s attempt %d/%d failed: %v", kind, attempt, maxAttempts, err)
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, err)
}

// isTransient reports whether an error is worth an immediate retry:
// network trouble or provider-side throttling. Definitive answers
// (not found, denied, invalid request) are not.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "UNKNOWN_ERROR")
}

func coordStrings(coords []domain.Coordinates) []string {
	out := make([]string, len(coords))
	for i, c := range coords {
		out[i] = c.String()
	}
	return out
}
