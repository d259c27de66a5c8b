package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/amishk599/staywatch/internal/model"
)

func newTestDB(t *testing.T) *SQLDB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	d, err := NewSQLiteDB(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSQLite_EmptySite(t *testing.T) {
	d := newTestDB(t)
	ids, err := d.ForSite("booking").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Load() = %v, want empty", ids)
	}
}

func TestSQLite_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t).ForSite("booking")

	if err := s.Save(ctx, model.NewIDSet("a1", "a2")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 2 || !ids.Has("a1") || !ids.Has("a2") {
		t.Errorf("Load() = %v, want {a1, a2}", ids)
	}
}

func TestSQLite_SaveReplacesContent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t).ForSite("agoda")

	if err := s.Save(ctx, model.NewIDSet("x", "y")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(ctx, model.NewIDSet("y", "z")); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	ids, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 2 || ids.Has("x") || !ids.Has("z") {
		t.Errorf("Load() = %v, want {y, z}", ids)
	}
}

func TestSQLite_SitesAreIsolated(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	if err := d.ForSite("booking").Save(ctx, model.NewIDSet("shared")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err := d.ForSite("trip").Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ids.Has("shared") {
		t.Error("trip sees an id saved for booking")
	}
}

func TestNopStore(t *testing.T) {
	s := NewNopStore()
	if err := s.Save(context.Background(), model.NewIDSet("a")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err := s.Load(context.Background())
	if err != nil || len(ids) != 0 {
		t.Errorf("Load() = %v, %v; want empty, nil", ids, err)
	}
}
