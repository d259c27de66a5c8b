// Package cooldown remembers sites that recently blocked us so passes skip
// them until the block has had time to lift.
package cooldown

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// ErrMiss is returned by Cache.Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

// Cache is a small TTL key/value store.
type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value   []byte
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok || !c.now().Before(it.expires) {
		delete(c.items, key)
		return nil, ErrMiss
	}
	return it.value, nil
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryItem{value: value, expires: c.now().Add(ttl)}
	return nil
}

// MemcacheCache shares cooldowns between staywatch processes.
type MemcacheCache struct {
	client *memcache.Client
}

func NewMemcacheCache(addr string) *MemcacheCache {
	return &MemcacheCache{client: memcache.New(addr)}
}

func (m *MemcacheCache) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (m *MemcacheCache) Set(key string, value []byte, ttl time.Duration) error {
	secs := int32(ttl.Seconds())
	if secs < 1 {
		secs = 1
	}
	return m.client.Set(&memcache.Item{Key: key, Value: value, Expiration: secs})
}

// Tracker records blocked sites in a Cache.
type Tracker struct {
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewTracker returns a tracker that keeps sites cooling down for ttl.
func NewTracker(cache Cache, ttl time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{cache: cache, ttl: ttl, logger: logger}
}

func key(site string) string { return "staywatch:cooldown:" + site }

// Active reports whether site is cooling down and until when. Cache errors
// are logged and treated as "not cooling down".
func (t *Tracker) Active(site string) (time.Time, bool) {
	v, err := t.cache.Get(key(site))
	if errors.Is(err, ErrMiss) {
		return time.Time{}, false
	}
	if err != nil {
		t.logger.Warn("cooldown lookup failed", "site", site, "error", err)
		return time.Time{}, false
	}
	until, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, true
	}
	return until, true
}

// Trip starts a cooldown for site.
func (t *Tracker) Trip(site string) {
	if t.ttl <= 0 {
		return
	}
	until := time.Now().Add(t.ttl).UTC().Format(time.RFC3339)
	if err := t.cache.Set(key(site), []byte(until), t.ttl); err != nil {
		t.logger.Warn("cooldown store failed", "site", site, "error", err)
		return
	}
	t.logger.Info("site cooling down", "site", site, "until", until)
}
