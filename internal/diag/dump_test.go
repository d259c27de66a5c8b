package diag

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/staywatch/internal/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDump_WritesHTMLWithTimestampedName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	d := NewDumper(dir, discardLogger())
	d.now = func() time.Time { return time.Date(2026, 3, 10, 9, 5, 7, 42*int(time.Millisecond), time.UTC) }

	page, err := render.NewStaticPage("https://kr.trip.com/hotels/list", "<html><body>zero</body></html>")
	if err != nil {
		t.Fatal(err)
	}
	d.Dump(context.Background(), page, "trip_parsed_zero")

	data, err := os.ReadFile(filepath.Join(dir, "trip_parsed_zero_20260310_090507_042.html"))
	if err != nil {
		t.Fatalf("expected html dump: %v", err)
	}
	if string(data) != "<html><body>zero</body></html>" {
		t.Errorf("dump content = %q", data)
	}
	// Static pages have no screenshot; the dump still succeeds.
	if _, err := os.Stat(filepath.Join(dir, "trip_parsed_zero_20260310_090507_042.png")); !os.IsNotExist(err) {
		t.Errorf("unexpected png: %v", err)
	}
}

func TestDump_SameInstantDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	d := NewDumper(dir, discardLogger())
	d.now = func() time.Time { return time.Date(2026, 3, 10, 9, 5, 7, 0, time.UTC) }

	first, _ := render.NewStaticPage("https://www.agoda.com/search", "<p>first</p>")
	second, _ := render.NewStaticPage("https://www.agoda.com/search", "<p>second</p>")
	d.Dump(context.Background(), first, "agoda_blocked")
	d.Dump(context.Background(), second, "agoda_blocked")

	a, err := os.ReadFile(filepath.Join(dir, "agoda_blocked_20260310_090507_000.html"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "agoda_blocked_20260310_090507_000_2.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != "<p>first</p>" || string(b) != "<p>second</p>" {
		t.Errorf("dumps = %q, %q", a, b)
	}
}

func TestDump_UnwritableDirIsNotFatal(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	d := NewDumper(filepath.Join(file, "debug"), discardLogger())
	page, _ := render.NewStaticPage("https://x", "<p>x</p>")

	d.Dump(context.Background(), page, "booking_blocked") // must not panic
}
