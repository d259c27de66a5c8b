package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/staywatch/internal/model"
)

// SiteRateLimiter enforces a minimum delay between page renders on the same site.
type SiteRateLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: site name, earliest start of the next render
	minDelay time.Duration
	perSite  map[string]time.Duration
}

// NewSiteRateLimiter creates a limiter with a default delay and optional
// per-site overrides.
func NewSiteRateLimiter(minDelay time.Duration, perSite map[string]time.Duration) *SiteRateLimiter {
	return &SiteRateLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
		perSite:  perSite,
	}
}

func (r *SiteRateLimiter) delayFor(site string) time.Duration {
	if d, ok := r.perSite[site]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until the site's next slot. Slots are reserved under the lock,
// so concurrent callers for one site are spaced out rather than released together.
func (r *SiteRateLimiter) Wait(ctx context.Context, site string) error {
	r.mu.Lock()
	now := time.Now()
	slot := r.next[site]
	if slot.Before(now) {
		slot = now
	}
	r.next[site] = slot.Add(r.delayFor(site))
	r.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", site, ctx.Err())
	case <-t.C:
		return nil
	}
}

// Ensure RateLimitedFetcher implements model.ListingFetcher.
var _ model.ListingFetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher is a decorator that enforces site-level pacing before
// delegating to the wrapped ListingFetcher.
type RateLimitedFetcher struct {
	inner   model.ListingFetcher
	limiter *SiteRateLimiter
	site    string
}

// NewRateLimitedFetcher wraps a ListingFetcher with site-level rate limiting.
func NewRateLimitedFetcher(inner model.ListingFetcher, limiter *SiteRateLimiter, site string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		site:    site,
	}
}

// FetchListings waits for the limiter, then delegates.
func (f *RateLimitedFetcher) FetchListings(ctx context.Context, url string) ([]model.Listing, error) {
	if err := f.limiter.Wait(ctx, f.site); err != nil {
		return nil, err
	}
	return f.inner.FetchListings(ctx, url)
}
