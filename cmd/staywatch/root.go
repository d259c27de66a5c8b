package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/staywatch/internal/adapter"
	"github.com/amishk599/staywatch/internal/config"
	"github.com/amishk599/staywatch/internal/cooldown"
	"github.com/amishk599/staywatch/internal/diag"
	"github.com/amishk599/staywatch/internal/filter"
	"github.com/amishk599/staywatch/internal/metrics"
	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/notifier"
	"github.com/amishk599/staywatch/internal/poller"
	"github.com/amishk599/staywatch/internal/ratelimit"
	"github.com/amishk599/staywatch/internal/render"
	"github.com/amishk599/staywatch/internal/retry"
	"github.com/amishk599/staywatch/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var errNoSites = errors.New("no sites to poll")

var rootCmd = &cobra.Command{
	Use:   "staywatch",
	Short: "Hotel listing radar",
	Long:  "Staywatch renders hotel search pages on Booking, Agoda and Trip.com and alerts you to new listings that match your rules.",
	// Default to `start` so that `staywatch` with no args runs the daemon.
	RunE: runStart,
	// Commands log their own failures; main maps a returned error to exit 1.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: STAYWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig reads .env when present, then resolves the config path and parses it.
// Priority: explicit path arg > STAYWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		if env := os.Getenv("STAYWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// setupNotifier builds the configured sink wrapped in delivery retries.
// Missing credentials are returned as an error so the caller can refuse to start.
func setupNotifier(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Notifier, func(), error) {
	nc := cfg.Notification
	var n model.Notifier
	closeFn := func() {}

	switch nc.Type {
	case "telegram":
		tgClient := &http.Client{Timeout: 15 * time.Second}
		tg, err := notifier.NewTelegramNotifier(nc.Telegram.APIURL, nc.Telegram.Token, nc.Telegram.ChatID, tgClient, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using telegram notifier")
		n = tg
	case "slack":
		logger.Info("using slack notifier")
		n = notifier.NewSlackNotifier(nc.WebhookURL, httpClient, logger)
	case "redis":
		rn, err := notifier.NewRedisStreamNotifier(ctx, notifier.RedisOptions{
			Addr:   nc.Redis.Addr,
			DB:     nc.Redis.DB,
			Stream: nc.Redis.Stream,
			MaxLen: nc.Redis.MaxLen,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis stream notifier", "stream", nc.Redis.Stream)
		n = rn
		closeFn = func() { rn.Close() }
	default:
		return notifier.NewLogNotifier(logger), closeFn, nil
	}

	if nc.Retries > 0 {
		n = retry.NewRetryNotifier(n, nc.Retries, 5*time.Second, logger)
	}
	return n, closeFn, nil
}

// setupStore returns a per-site seen store factory for the configured backend.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(site string) model.SeenStore, func(), error) {
	switch cfg.Store.Type {
	case "sqlite":
		db, err := store.NewSQLiteDB(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite seen store", "path", cfg.Store.Path)
		return db.ForSite, func() { db.Close() }, nil
	case "postgres":
		db, err := store.NewPostgresDB(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres seen store")
		return db.ForSite, func() { db.Close() }, nil
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		logger.Info("using json seen store", "dir", cfg.DataDir)
		return func(site string) model.SeenStore {
			return store.NewJSONStore(cfg.DataDir, site)
		}, func() {}, nil
	}
}

func setupRenderer(cfg *config.Config, logger *slog.Logger) (*render.ChromeRenderer, error) {
	b := cfg.Browser
	return render.NewChromeRenderer(render.ChromeOptions{
		Headless:    b.Headless,
		ExecPath:    b.ChromePath,
		UserAgent:   b.UserAgent,
		Locale:      b.Locale,
		NavTimeout:  b.NavTimeout,
		StepTimeout: b.WaitTimeout,
	}, logger)
}

func setupCooldown(cfg *config.Config, logger *slog.Logger) *cooldown.Tracker {
	var cache cooldown.Cache = cooldown.NewMemoryCache()
	if cfg.Cooldown.MemcacheAddr != "" {
		logger.Info("sharing cooldowns via memcache", "addr", cfg.Cooldown.MemcacheAddr)
		cache = cooldown.NewMemcacheCache(cfg.Cooldown.MemcacheAddr)
	}
	return cooldown.NewTracker(cache, cfg.Cooldown.Duration, logger)
}

func adapterOptions(cfg *config.Config) adapter.Options {
	return adapter.Options{
		WaitTimeout:  cfg.Browser.WaitTimeout,
		ScrollPulses: cfg.Browser.ScrollPulses,
		ScrollStep:   cfg.Browser.ScrollStep,
		ScrollPause:  cfg.Browser.ScrollPause,
	}
}

// pollerDeps carries what buildPollers wires into every site poller.
type pollerDeps struct {
	renderer render.Renderer
	storeFor func(site string) model.SeenStore
	notifier model.Notifier
	cooldown poller.Cooldown
	metrics  *metrics.Metrics
	seed     bool
}

func buildPollers(cfg *config.Config, deps pollerDeps, logger *slog.Logger) []*poller.SitePoller {
	logger.Info("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String())

	limiter := ratelimit.NewSiteRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SiteOverrides)
	dumper := diag.NewDumper(cfg.DebugDir, logger)
	ruleFilter := filter.NewRuleFilter(cfg.Rules)

	var pollers []*poller.SitePoller
	for _, site := range cfg.EnabledSites() {
		spec, err := adapter.Lookup(site.Name)
		if err != nil {
			logger.Warn("unsupported site, skipping", "site", site.Name)
			continue
		}
		siteLogger := logger.With("site", site.Name)

		var fetcher model.ListingFetcher = adapter.NewSiteAdapter(spec, deps.renderer, dumper, adapterOptions(cfg), siteLogger)
		fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter, site.Name)

		opts := []poller.Option{
			poller.WithMetrics(deps.metrics),
			poller.WithFirstRunSeed(deps.seed),
		}
		if deps.cooldown != nil {
			opts = append(opts, poller.WithCooldown(deps.cooldown))
		}
		p := poller.NewSitePoller(site.Name, site.Queries, fetcher, ruleFilter, deps.storeFor(site.Name), deps.notifier, logger, opts...)
		pollers = append(pollers, p)
		logger.Info("registered site", "name", site.Name, "queries", len(site.Queries))
	}
	return pollers
}
