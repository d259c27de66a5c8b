package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/poller"
)

// Scheduler owns the main loop: one pass over every site immediately, then
// one every interval. Sites run concurrently, at most limit at a time.
type Scheduler struct {
	pollers  []*poller.SitePoller
	interval time.Duration
	limit    int
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. A limit below 1 means one site at a time.
func NewScheduler(pollers []*poller.SitePoller, interval time.Duration, limit int, logger *slog.Logger) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	return &Scheduler{
		pollers:  pollers,
		interval: interval,
		limit:    limit,
		logger:   logger,
	}
}

// Run starts the polling loop. It returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"sites", len(s.pollers),
		"max_concurrent_sites", s.limit,
	)

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs one pass for every site and waits for all of them. Summaries
// are returned in poller order; failed passes are logged and left zeroed
// apart from the site name.
func (s *Scheduler) RunOnce(ctx context.Context) []poller.Summary {
	summaries := make([]poller.Summary, len(s.pollers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, p := range s.pollers {
		i, p := i, p
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			sum, err := p.Poll(gctx)
			if err != nil {
				level := slog.LevelError
				if errors.Is(err, model.ErrPassInProgress) {
					level = slog.LevelWarn
				}
				s.logger.Log(gctx, level, "pass failed", "site", p.Name, "error", err)
				sum.Site = p.Name
			}
			mu.Lock()
			summaries[i] = sum
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return summaries
}
