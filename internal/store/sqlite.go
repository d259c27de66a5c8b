package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name:      "sqlite",
	selectIDs: "SELECT listing_id FROM seen_listings WHERE site = ?",
	insertID:  "INSERT OR IGNORE INTO seen_listings (site, listing_id) VALUES (?, ?)",
	deleteID:  "DELETE FROM seen_listings WHERE site = ? AND listing_id = ?",
	createStmt: `CREATE TABLE IF NOT EXISTS seen_listings (
		site       TEXT NOT NULL,
		listing_id TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (site, listing_id)
	)`,
}

// NewSQLiteDB opens (or creates) a SQLite database at dbPath and ensures the
// seen_listings table exists.
func NewSQLiteDB(dbPath string) (*SQLDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	// One writer at a time; concurrent site passes queue here.
	db.SetMaxOpenConns(1)

	d := &SQLDB{db: db, dialect: sqliteDialect}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}
