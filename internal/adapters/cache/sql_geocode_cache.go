package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/obs"
)

// SQLGeocodeCache is a Postgres-backed cache mapping addresses to
// coordinates, shared across service restarts.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch cached coordinates for the given addresses.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := dedupe(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	q := `
	SELECT address, lat, lng
    FROM geocode_cache
    WHERE address = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var addr string
		var lat, lng float64
		if err := rows.Scan(&addr, &lat, &lng); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = domain.Coordinates{Lat: lat, Lng: lng}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lng)
    VALUES ($1, $2, $3)
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for addr, c := range results {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, addr, c.Lat, c.Lng); err != nil {
			return fmt.Errorf("insert geocode cache coord=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

// dedupe trims, drops blanks, and removes duplicates while preserving
// first-seen order.
func dedupe(addresses []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}

		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}
	return uniq
}
