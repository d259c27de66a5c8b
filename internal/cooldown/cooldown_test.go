package cooldown

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := c.Get("k"); err != nil || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}

	now = now.Add(time.Minute)
	if _, err := c.Get("k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after expiry = %v, want ErrMiss", err)
	}
}

func TestTracker_TripThenActive(t *testing.T) {
	tr := NewTracker(NewMemoryCache(), 30*time.Minute, discardLogger())

	if _, ok := tr.Active("trip"); ok {
		t.Fatal("fresh tracker reports an active cooldown")
	}
	tr.Trip("trip")

	until, ok := tr.Active("trip")
	if !ok {
		t.Fatal("expected cooldown after Trip")
	}
	if d := time.Until(until); d < 29*time.Minute || d > 31*time.Minute {
		t.Errorf("cooldown ends in %v, want ~30m", d)
	}
	if _, ok := tr.Active("booking"); ok {
		t.Error("cooldown leaked to another site")
	}
}

func TestTracker_ZeroTTLDisables(t *testing.T) {
	tr := NewTracker(NewMemoryCache(), 0, discardLogger())
	tr.Trip("agoda")
	if _, ok := tr.Active("agoda"); ok {
		t.Error("zero ttl should not start a cooldown")
	}
}

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheCache(t *testing.T) {
	mc := NewMemcacheCache("localhost:11211")
	if _, err := mc.client.Get("probe"); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		t.Skip("Memcached is not available, skipping test")
	}

	if err := mc.Set("staywatch:test", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := mc.Get("staywatch:test")
	if err != nil || string(v) != "v" {
		t.Errorf("Get = %q, %v", v, err)
	}
	if _, err := mc.Get("staywatch:absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(absent) = %v, want ErrMiss", err)
	}
}
