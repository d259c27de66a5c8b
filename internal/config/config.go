package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/staywatch/internal/adapter"
	"github.com/amishk599/staywatch/internal/model"
)

// Config is the root configuration for the staywatch monitor.
type Config struct {
	PollingInterval    time.Duration
	MaxConcurrentSites int
	DataDir            string
	DebugDir           string
	SeedOnFirstRun     bool
	Rules              model.Rules
	Browser            BrowserConfig
	Store              StoreConfig
	Notification       NotificationConfig
	RateLimit          RateLimitConfig
	Cooldown           CooldownConfig
	Metrics            MetricsConfig
	Sites              []SiteConfig
}

// BrowserConfig controls the headless browser and page waiting.
type BrowserConfig struct {
	Headless     bool
	ChromePath   string
	UserAgent    string
	Locale       string
	NavTimeout   time.Duration
	WaitTimeout  time.Duration
	ScrollPulses int
	ScrollStep   int
	ScrollPause  time.Duration
}

// StoreConfig selects the seen store backend.
type StoreConfig struct {
	Type string `yaml:"type"` // "json", "sqlite" or "postgres"
	Path string `yaml:"path"` // sqlite database file
	DSN  string `yaml:"dsn"`  // postgres connection string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string         `yaml:"type"`        // "telegram" (default), "slack", "redis" or "log"
	WebhookURL string         `yaml:"webhook_url"` // required if type is "slack"
	Telegram   TelegramConfig `yaml:"telegram"`
	Redis      RedisConfig    `yaml:"redis"`
	Retries    int            `yaml:"retries"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
	APIURL string `yaml:"api_url"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	DB     int    `yaml:"db"`
	Stream string `yaml:"stream"`
	MaxLen int64  `yaml:"max_len"`
}

// RateLimitConfig controls per-site render pacing.
type RateLimitConfig struct {
	MinDelay      time.Duration            // minimum gap between page loads on the same site
	SiteOverrides map[string]time.Duration // per-site overrides, keyed by site name
}

// MinDelayFor returns the configured delay for the given site, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(site string) time.Duration {
	if d, ok := r.SiteOverrides[site]; ok {
		return d
	}
	return r.MinDelay
}

// CooldownConfig controls how long a blocked site is skipped.
type CooldownConfig struct {
	Duration     time.Duration
	MemcacheAddr string // empty keeps cooldowns in process memory
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables /metrics
}

// SiteConfig describes one site and the searches to run on it.
type SiteConfig struct {
	Name    string
	Enabled bool
	Queries []model.Query
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	PollingInterval    string             `yaml:"polling_interval"`
	MaxConcurrentSites int                `yaml:"max_concurrent_sites"`
	DataDir            string             `yaml:"data_dir"`
	DebugDir           string             `yaml:"debug_dir"`
	SeedOnFirstRun     bool               `yaml:"seed_on_first_run"`
	Rules              rawRules           `yaml:"rules"`
	Browser            rawBrowserConfig   `yaml:"browser"`
	Store              StoreConfig        `yaml:"store"`
	Notification       NotificationConfig `yaml:"notification"`
	RateLimit          rawRateLimitConfig `yaml:"rate_limit"`
	Cooldown           rawCooldownConfig  `yaml:"cooldown"`
	Metrics            MetricsConfig      `yaml:"metrics"`
	Sites              []rawSiteConfig    `yaml:"sites"`
}

type rawRules struct {
	MinTotalPrice     int64   `yaml:"min_total_price"`
	MaxTotalPrice     *int64  `yaml:"max_total_price"`
	MinRating         float64 `yaml:"min_rating"`
	RequireFreeCancel bool    `yaml:"require_free_cancel"`
}

type rawBrowserConfig struct {
	Headless     *bool  `yaml:"headless"`
	ChromePath   string `yaml:"chrome_path"`
	UserAgent    string `yaml:"user_agent"`
	Locale       string `yaml:"locale"`
	NavTimeout   string `yaml:"nav_timeout"`
	WaitTimeout  string `yaml:"wait_timeout"`
	ScrollPulses int    `yaml:"scroll_pulses"`
	ScrollStep   int    `yaml:"scroll_step"`
	ScrollPause  string `yaml:"scroll_pause"`
}

type rawRateLimitConfig struct {
	MinDelay      string            `yaml:"min_delay"`
	SiteOverrides map[string]string `yaml:"site_overrides"`
}

type rawCooldownConfig struct {
	Duration     string `yaml:"duration"`
	MemcacheAddr string `yaml:"memcache_addr"`
}

type rawSiteConfig struct {
	Name    string     `yaml:"name"`
	Enabled *bool      `yaml:"enabled"`
	Queries []rawQuery `yaml:"queries"`
}

type rawQuery struct {
	Name   string          `yaml:"name"`
	URL    string          `yaml:"url"`
	Search *adapter.Search `yaml:"search"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := durationOr(raw.PollingInterval, 30*time.Minute, "polling_interval")
	if err != nil {
		return nil, err
	}
	navTimeout, err := durationOr(raw.Browser.NavTimeout, 60*time.Second, "browser.nav_timeout")
	if err != nil {
		return nil, err
	}
	waitTimeout, err := durationOr(raw.Browser.WaitTimeout, 15*time.Second, "browser.wait_timeout")
	if err != nil {
		return nil, err
	}
	scrollPause, err := durationOr(raw.Browser.ScrollPause, 700*time.Millisecond, "browser.scroll_pause")
	if err != nil {
		return nil, err
	}
	minDelay, err := durationOr(raw.RateLimit.MinDelay, 10*time.Second, "rate_limit.min_delay")
	if err != nil {
		return nil, err
	}
	cooldown, err := durationOr(raw.Cooldown.Duration, 30*time.Minute, "cooldown.duration")
	if err != nil {
		return nil, err
	}

	siteOverrides := make(map[string]time.Duration)
	for site, v := range raw.RateLimit.SiteOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.site_overrides[%q]: %w", site, err)
		}
		siteOverrides[site] = d
	}

	sites, err := buildSites(raw.Sites)
	if err != nil {
		return nil, err
	}

	rules := model.Rules{
		MinTotalPrice:     raw.Rules.MinTotalPrice,
		MaxTotalPrice:     math.MaxInt64,
		MinRating:         raw.Rules.MinRating,
		RequireFreeCancel: raw.Rules.RequireFreeCancel,
	}
	if raw.Rules.MaxTotalPrice != nil {
		rules.MaxTotalPrice = *raw.Rules.MaxTotalPrice
	}

	cfg := &Config{
		PollingInterval:    interval,
		MaxConcurrentSites: orInt(raw.MaxConcurrentSites, 2),
		DataDir:            orString(raw.DataDir, "data"),
		DebugDir:           raw.DebugDir,
		SeedOnFirstRun:     raw.SeedOnFirstRun,
		Rules:              rules,
		Browser: BrowserConfig{
			Headless:     raw.Browser.Headless == nil || *raw.Browser.Headless,
			ChromePath:   raw.Browser.ChromePath,
			UserAgent:    orString(raw.Browser.UserAgent, defaultUserAgent),
			Locale:       orString(raw.Browser.Locale, "ko-KR"),
			NavTimeout:   navTimeout,
			WaitTimeout:  waitTimeout,
			ScrollPulses: orInt(raw.Browser.ScrollPulses, 4),
			ScrollStep:   orInt(raw.Browser.ScrollStep, 2500),
			ScrollPause:  scrollPause,
		},
		Store:        raw.Store,
		Notification: raw.Notification,
		RateLimit: RateLimitConfig{
			MinDelay:      minDelay,
			SiteOverrides: siteOverrides,
		},
		Cooldown: CooldownConfig{
			Duration:     cooldown,
			MemcacheAddr: raw.Cooldown.MemcacheAddr,
		},
		Metrics: raw.Metrics,
		Sites:   sites,
	}
	if cfg.DebugDir == "" {
		cfg.DebugDir = cfg.DataDir + "/debug"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "json"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = cfg.DataDir + "/seen.db"
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "telegram"
	}
	if cfg.Notification.Telegram.Token == "" {
		cfg.Notification.Telegram.Token = os.Getenv("TG_TOKEN")
	}
	if cfg.Notification.Telegram.ChatID == "" {
		cfg.Notification.Telegram.ChatID = os.Getenv("TG_CHAT_ID")
	}
	if cfg.Notification.Redis.Stream == "" {
		cfg.Notification.Redis.Stream = "staywatch:listings"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildSites resolves each query to a URL, building it from the structured
// search when no url is given. Sites default to enabled.
func buildSites(raw []rawSiteConfig) ([]SiteConfig, error) {
	sites := make([]SiteConfig, 0, len(raw))
	for _, rs := range raw {
		sc := SiteConfig{Name: rs.Name, Enabled: rs.Enabled == nil || *rs.Enabled}
		for i, rq := range rs.Queries {
			q := model.Query{Name: rq.Name, URL: rq.URL}
			if q.URL == "" && rq.Search != nil {
				u, err := adapter.BuildSearchURL(rs.Name, *rq.Search)
				if err != nil {
					return nil, fmt.Errorf("sites[%s].queries[%d]: %w", rs.Name, i, err)
				}
				q.URL = u
			}
			if q.URL == "" {
				return nil, fmt.Errorf("sites[%s].queries[%d]: url or search is required", rs.Name, i)
			}
			if q.Name == "" {
				q.Name = fmt.Sprintf("%s-%d", rs.Name, i+1)
			}
			sc.Queries = append(sc.Queries, q)
		}
		sites = append(sites, sc)
	}
	return sites, nil
}

// EnabledSites returns the sites with enabled set.
func (c *Config) EnabledSites() []SiteConfig {
	var out []SiteConfig
	for _, s := range c.Sites {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.MaxConcurrentSites < 1 {
		return fmt.Errorf("max_concurrent_sites must be at least 1, got %d", cfg.MaxConcurrentSites)
	}

	enabled := 0
	for _, s := range cfg.Sites {
		if _, err := adapter.Lookup(s.Name); err != nil {
			return fmt.Errorf("sites: %w (known: %s)", err, strings.Join(adapter.Sites(), ", "))
		}
		if s.Enabled {
			if len(s.Queries) == 0 {
				return fmt.Errorf("site %q is enabled but has no queries", s.Name)
			}
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one site must be enabled")
	}

	r := cfg.Rules
	if r.MinTotalPrice < 0 {
		return fmt.Errorf("rules.min_total_price must not be negative, got %d", r.MinTotalPrice)
	}
	if r.MaxTotalPrice < r.MinTotalPrice {
		return fmt.Errorf("rules.max_total_price (%d) is below rules.min_total_price (%d)", r.MaxTotalPrice, r.MinTotalPrice)
	}

	switch cfg.Store.Type {
	case "json", "sqlite":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when type is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.type must be json, sqlite or postgres, got %q", cfg.Store.Type)
	}

	n := cfg.Notification
	switch n.Type {
	case "log", "telegram":
		// telegram credentials are checked by the notifier constructor
	case "slack":
		if n.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(n.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	case "redis":
		if n.Redis.Addr == "" {
			return fmt.Errorf("notification.redis.addr is required when type is \"redis\"")
		}
	default:
		return fmt.Errorf("notification.type must be telegram, slack, redis or log, got %q", n.Type)
	}
	if n.Retries < 0 {
		return fmt.Errorf("notification.retries must not be negative, got %d", n.Retries)
	}

	return nil
}

func durationOr(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
