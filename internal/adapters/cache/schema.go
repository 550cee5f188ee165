package cache

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates the geocode cache table if it does not exist. The
// statement is valid for both Postgres and SQLite.
func InitSchema(ctx context.Context, db *sql.DB) error {
	q := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat     DOUBLE PRECISION NOT NULL,
		lng     DOUBLE PRECISION NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init geocode cache schema: %w", err)
	}
	return nil
}
