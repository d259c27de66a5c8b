package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amishk599/staywatch/internal/model"
)

// dialect holds the statements that differ between SQL backends.
type dialect struct {
	name       string
	selectIDs  string
	insertID   string
	deleteID   string
	createStmt string
}

// SQLDB tracks seen listing IDs for all sites in one seen_listings table.
type SQLDB struct {
	db      *sql.DB
	dialect dialect
}

// ForSite returns the SeenStore view of one site.
func (d *SQLDB) ForSite(site string) model.SeenStore {
	return &siteStore{db: d, site: site}
}

// Close closes the underlying database connection.
func (d *SQLDB) Close() error {
	return d.db.Close()
}

func (d *SQLDB) migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, d.dialect.createStmt); err != nil {
		return fmt.Errorf("creating seen_listings table: %w", err)
	}
	return nil
}

type siteStore struct {
	db   *SQLDB
	site string
}

// Load returns every ID recorded for the site.
func (s *siteStore) Load(ctx context.Context) (model.IDSet, error) {
	rows, err := s.db.db.QueryContext(ctx, s.db.dialect.selectIDs, s.site)
	if err != nil {
		return nil, fmt.Errorf("loading seen ids for %s: %w", s.site, err)
	}
	defer rows.Close()

	ids := model.NewIDSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning %s row: %v", model.ErrCorruptStore, s.db.dialect.name, err)
		}
		ids.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading seen ids for %s: %w", s.site, err)
	}
	return ids, nil
}

// Save makes the stored rows for the site equal to ids in one transaction.
// Rows that survive keep their first_seen timestamp.
func (s *siteStore) Save(ctx context.Context, ids model.IDSet) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save for %s: %w", s.site, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for id := range current {
		if ids.Has(id) {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.db.dialect.deleteID, s.site, id); err != nil {
			return fmt.Errorf("removing %s for %s: %w", id, s.site, err)
		}
	}
	for _, id := range ids.Sorted() {
		if current.Has(id) {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.db.dialect.insertID, s.site, id); err != nil {
			return fmt.Errorf("marking %s seen for %s: %w", id, s.site, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save for %s: %w", s.site, err)
	}
	return nil
}
