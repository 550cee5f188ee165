package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"van-route-service/internal/domain"
)

// SQLite backed cache mapping address strings to geographic
// coordinates. Address keys are stored exactly as given; callers
// normalize if they want case-insensitive hits.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch cached coordinates for the given addresses.
func (s *SqliteGeocodeCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := dedupe(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	args := make([]any, 0, len(uniq))
	ph := make([]string, 0, len(uniq))
	for _, a := range uniq {
		args = append(args, a)
		ph = append(ph, "?")
	}

	// SQLite cannot bind a slice into an IN (...) clause. Only the
	// placeholder structure is interpolated; all values stay
	// parameterized.
	q := fmt.Sprintf(`
	SELECT address, lat, lng
    FROM geocode_cache
    WHERE address IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
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
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
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
	INSERT OR REPLACE INTO geocode_cache (address, lat, lng)
    VALUES (?, ?, ?);
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
