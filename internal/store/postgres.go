package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name:      "postgres",
	selectIDs: "SELECT listing_id FROM seen_listings WHERE site = $1",
	insertID:  "INSERT INTO seen_listings (site, listing_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
	deleteID:  "DELETE FROM seen_listings WHERE site = $1 AND listing_id = $2",
	createStmt: `CREATE TABLE IF NOT EXISTS seen_listings (
		site       VARCHAR(50) NOT NULL,
		listing_id TEXT        NOT NULL,
		first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (site, listing_id)
	)`,
}

// NewPostgresDB connects to PostgreSQL, retrying the ping while the server
// comes up, and ensures the seen_listings table exists.
func NewPostgresDB(ctx context.Context, dsn string) (*SQLDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("postgres: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	d := &SQLDB{db: db, dialect: postgresDialect}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return d, nil
}
