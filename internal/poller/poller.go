package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amishk599/staywatch/internal/metrics"
	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/notifier"
)

// Cooldown tracks sites that recently served a block page.
type Cooldown interface {
	Active(site string) (time.Time, bool)
	Trip(site string)
}

// Summary counts what happened during one pass.
type Summary struct {
	Site        string
	Queries     int
	QueryErrors int
	Extracted   int
	Matched     int
	Notified    int
	Failed      int
	Seeded      int
	CooledDown  bool
}

// SitePoller owns the full pass for a single site:
// load seen → fetch each query → dedup → rules → notify → save seen.
type SitePoller struct {
	Name     string
	queries  []model.Query
	fetcher  model.ListingFetcher
	filter   model.ListingFilter
	store    model.SeenStore
	notifier model.Notifier
	cooldown Cooldown
	metrics  *metrics.Metrics
	seed     bool
	logger   *slog.Logger

	mu sync.Mutex
}

// Option customizes a SitePoller.
type Option func(*SitePoller)

// WithCooldown skips passes while the site is cooling down and trips the
// cooldown when a query is blocked.
func WithCooldown(c Cooldown) Option {
	return func(p *SitePoller) { p.cooldown = c }
}

// WithMetrics records pass counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *SitePoller) { p.metrics = m }
}

// WithFirstRunSeed records everything without notifying when the site's
// seen set is empty.
func WithFirstRunSeed(enabled bool) Option {
	return func(p *SitePoller) { p.seed = enabled }
}

// NewSitePoller creates a poller wired with all its dependencies.
func NewSitePoller(
	name string,
	queries []model.Query,
	fetcher model.ListingFetcher,
	filter model.ListingFilter,
	store model.SeenStore,
	n model.Notifier,
	logger *slog.Logger,
	opts ...Option,
) *SitePoller {
	p := &SitePoller{
		Name:     name,
		queries:  queries,
		fetcher:  fetcher,
		filter:   filter,
		store:    store,
		notifier: n,
		logger:   logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Poll runs one pass. A pass already running for this site makes Poll
// return ErrPassInProgress immediately. The seen set is saved once at the
// end, even if ctx was cancelled after some notifications went out.
func (p *SitePoller) Poll(ctx context.Context) (Summary, error) {
	sum := Summary{Site: p.Name}
	if !p.mu.TryLock() {
		return sum, fmt.Errorf("polling %s: %w", p.Name, model.ErrPassInProgress)
	}
	defer p.mu.Unlock()

	if p.cooldown != nil {
		if until, ok := p.cooldown.Active(p.Name); ok {
			p.logger.Info("skipping site in cooldown", "site", p.Name, "until", until)
			sum.CooledDown = true
			return sum, nil
		}
	}

	start := time.Now()
	defer func() { p.metrics.PassDone(p.Name, time.Since(start)) }()

	seen, err := p.store.Load(ctx)
	if err != nil {
		return sum, fmt.Errorf("polling %s: loading seen set: %w", p.Name, err)
	}
	seeding := p.seed && len(seen) == 0
	failed := make(map[string]bool)

	for _, q := range p.queries {
		if ctx.Err() != nil {
			break
		}
		sum.Queries++

		listings, err := p.fetcher.FetchListings(ctx, q.URL)
		if err != nil {
			sum.QueryErrors++
			p.queryFailed(q, err)
			continue
		}
		sum.Extracted += len(listings)
		p.metrics.Extracted(p.Name, len(listings))

		for _, l := range listings {
			if seen.Has(l.ID) || failed[l.ID] {
				continue
			}
			if seeding {
				seen.Add(l.ID)
				sum.Seeded++
				continue
			}
			if !p.filter.Match(l) {
				continue
			}
			sum.Matched++
			if ctx.Err() != nil {
				break
			}

			if err := p.notifier.Deliver(ctx, notifier.FormatListing(l)); err != nil {
				failed[l.ID] = true
				sum.Failed++
				p.metrics.Notified(p.Name, "failed")
				p.logger.Error("notification failed",
					"site", p.Name,
					"listing", l.ID,
					"error", err,
				)
				continue
			}
			seen.Add(l.ID)
			sum.Notified++
			p.metrics.Notified(p.Name, "sent")
		}
	}

	if err := p.store.Save(context.WithoutCancel(ctx), seen); err != nil {
		return sum, fmt.Errorf("polling %s: saving seen set: %w", p.Name, err)
	}

	if seeding {
		p.logger.Info("first run: seeded seen set without notifying",
			"site", p.Name,
			"seeded", sum.Seeded,
		)
	}
	p.logger.Info("polled site",
		"site", p.Name,
		"queries", sum.Queries,
		"errors", sum.QueryErrors,
		"extracted", sum.Extracted,
		"matched", sum.Matched,
		"notified", sum.Notified,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (p *SitePoller) queryFailed(q model.Query, err error) {
	var blocked *model.BlockedError
	switch {
	case errors.As(err, &blocked):
		p.metrics.QueryFailed(p.Name, "blocked")
		p.logger.Warn("site served a block page",
			"site", p.Name,
			"query", q.Name,
			"marker", blocked.Marker,
		)
		if p.cooldown != nil {
			p.cooldown.Trip(p.Name)
		}
	case errors.Is(err, context.DeadlineExceeded):
		p.metrics.QueryFailed(p.Name, "timeout")
		p.logger.Warn("query timed out", "site", p.Name, "query", q.Name, "error", err)
	default:
		p.metrics.QueryFailed(p.Name, "error")
		p.logger.Error("query failed", "site", p.Name, "query", q.Name, "error", err)
	}
}
