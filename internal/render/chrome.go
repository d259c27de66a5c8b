package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

var _ Renderer = (*ChromeRenderer)(nil)

// ChromeOptions configures the headless browser.
type ChromeOptions struct {
	Headless    bool
	ExecPath    string // empty: discover
	UserAgent   string
	Locale      string
	Width       int
	Height      int
	NavTimeout  time.Duration // navigation + readiness
	StepTimeout time.Duration // any single action after navigation
}

// ChromeRenderer owns one browser process and opens a tab per page.
type ChromeRenderer struct {
	opts        ChromeOptions
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// NewChromeRenderer starts a browser. Close must be called to stop it.
func NewChromeRenderer(opts ChromeOptions, logger *slog.Logger) (*ChromeRenderer, error) {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 800
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 15 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Locale != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", opts.Locale))
	}
	execPath := opts.ExecPath
	if execPath == "" {
		execPath = FindChrome()
	}
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...any) {}),
	)
	// The first Run launches the browser; it must not carry a deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	logger.Debug("browser started", "exec", execPath, "headless", opts.Headless)
	return &ChromeRenderer{
		opts:        opts,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
		logger:      logger,
	}, nil
}

// Open navigates a new tab to url and waits for the body to be ready.
// Cancelling ctx closes the tab.
func (r *ChromeRenderer) Open(ctx context.Context, url string) (Page, func(), error) {
	tabCtx, closeTab := chromedp.NewContext(r.browserCtx)
	stop := context.AfterFunc(ctx, closeTab)
	release := func() {
		stop()
		closeTab()
	}

	if err := chromedp.Run(tabCtx); err != nil {
		release()
		return nil, nil, fmt.Errorf("opening tab: %w", err)
	}

	p := &chromePage{ctx: tabCtx, url: url, stepTimeout: r.opts.StepTimeout}
	err := p.run(ctx, r.opts.NavTimeout,
		chromedp.EmulateViewport(int64(r.opts.Width), int64(r.opts.Height)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	return p, release, nil
}

// Close stops the browser.
func (r *ChromeRenderer) Close() {
	r.cancel()
	r.allocCancel()
}

type chromePage struct {
	ctx         context.Context
	url         string
	stepTimeout time.Duration
}

// run executes actions on the tab bounded by timeout and by ctx's deadline.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		runCtx, cancelDL = context.WithDeadline(runCtx, dl)
		defer cancelDL()
	}
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) URL() string { return p.url }

func (p *chromePage) QueryAll(ctx context.Context, selector string) ([]Node, error) {
	html, err := p.Content(ctx)
	if err != nil {
		return nil, err
	}
	return queryHTML(html, selector)
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.stepTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	return html, nil
}

func (p *chromePage) Scroll(ctx context.Context, dy int) (int64, error) {
	var height float64
	expr := fmt.Sprintf("window.scrollBy(0, %d); document.body.scrollHeight", dy)
	if err := p.run(ctx, p.stepTimeout, chromedp.Evaluate(expr, &height)); err != nil {
		return 0, fmt.Errorf("scrolling: %w", err)
	}
	return int64(height), nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	var present bool
	check := fmt.Sprintf("document.querySelector(%s) !== null", quoted)
	if err := p.run(ctx, p.stepTimeout, chromedp.Evaluate(check, &present)); err != nil {
		return fmt.Errorf("checking %s: %w", selector, err)
	}
	if !present {
		return nil
	}
	if err := p.run(ctx, p.stepTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 produces PNG
	if err := p.run(ctx, p.stepTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// FindChrome locates a Chrome or Chromium binary: CHROME_BIN, then PATH,
// then well-known install paths. It returns "" to let chromedp decide.
func FindChrome() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
