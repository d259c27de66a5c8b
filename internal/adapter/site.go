package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/render"
)

// MaxListings caps how many listings one page yields.
const MaxListings = 25

// SiteSpec describes how to read one site's result page. Every selector
// list is ordered: the first candidate that matches wins.
type SiteSpec struct {
	Name       string
	Containers []string // card roots
	Title      []string
	Link       []string
	Price      []string
	Rating     []string
	Reviews    []string
	Location   []string
	Cancel     []string // cancellation-policy text
	Dismiss    []string // consent/close buttons clicked before reading

	// SelfLink means the container may itself be the listing anchor.
	SelfLink bool
	// ResolveAgainstOrigin resolves hrefs against scheme://host instead of
	// the visited URL.
	ResolveAgainstOrigin bool
}

// Options tunes page waiting.
type Options struct {
	WaitTimeout  time.Duration // per container candidate
	ScrollPulses int
	ScrollStep   int
	ScrollPause  time.Duration
}

// DefaultOptions mirrors the browser section defaults of the config.
func DefaultOptions() Options {
	return Options{
		WaitTimeout:  15 * time.Second,
		ScrollPulses: 4,
		ScrollStep:   2500,
		ScrollPause:  700 * time.Millisecond,
	}
}

// Dumper captures a page for offline debugging. Failures are its own concern.
type Dumper interface {
	Dump(ctx context.Context, page render.Page, tag string)
}

type nopDumper struct{}

func (nopDumper) Dump(context.Context, render.Page, string) {}

// Ensure SiteAdapter implements model.ListingFetcher.
var _ model.ListingFetcher = (*SiteAdapter)(nil)

// SiteAdapter renders a site's search pages and extracts listings from them.
type SiteAdapter struct {
	spec     SiteSpec
	renderer render.Renderer
	dumper   Dumper
	opts     Options
	logger   *slog.Logger
}

// NewSiteAdapter wires a site spec to a renderer. dumper may be nil.
func NewSiteAdapter(spec SiteSpec, renderer render.Renderer, dumper Dumper, opts Options, logger *slog.Logger) *SiteAdapter {
	if dumper == nil {
		dumper = nopDumper{}
	}
	return &SiteAdapter{
		spec:     spec,
		renderer: renderer,
		dumper:   dumper,
		opts:     opts,
		logger:   logger.With("site", spec.Name),
	}
}

// Name returns the site name.
func (a *SiteAdapter) Name() string { return a.spec.Name }

// FetchListings opens url, nudges lazy content into view and extracts it.
func (a *SiteAdapter) FetchListings(ctx context.Context, url string) ([]model.Listing, error) {
	page, release, err := a.renderer.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.spec.Name, err)
	}
	defer release()

	for _, sel := range a.spec.Dismiss {
		if err := page.Click(ctx, sel); err != nil {
			a.logger.Debug("dismiss click failed", "selector", sel, "error", err)
		}
	}

	pulses, err := render.ScrollUntilStable(ctx, page, a.opts.ScrollPulses, a.opts.ScrollStep, a.opts.ScrollPause)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", a.spec.Name, ctx.Err())
		}
		a.logger.Debug("scroll failed", "error", err)
	}
	a.logger.Debug("page settled", "url", url, "pulses", pulses)

	return a.Extract(ctx, page, url)
}

// Extract reads listings from an already rendered page. A page with no known
// container yields *model.BlockedError when it carries a block marker and an
// empty result otherwise.
func (a *SiteAdapter) Extract(ctx context.Context, page render.Page, baseURL string) ([]model.Listing, error) {
	sel, cards, err := render.WaitForAny(ctx, page, a.spec.Containers, a.opts.WaitTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: waiting for results: %w", a.spec.Name, err)
	}

	if sel == "" {
		content, err := page.Content(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: reading content: %w", a.spec.Name, err)
		}
		if marker := DetectBlock(content); marker != "" {
			a.dumper.Dump(ctx, page, a.spec.Name+"_blocked")
			return nil, &model.BlockedError{Site: a.spec.Name, Marker: marker}
		}
		a.logger.Warn("no result container matched", "url", baseURL)
		a.dumper.Dump(ctx, page, a.spec.Name+"_no_selector")
		return nil, nil
	}

	listings, err := a.spec.parseCards(cards, baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.spec.Name, err)
	}
	if len(listings) == 0 {
		a.logger.Warn("cards found but none parsed", "selector", sel, "cards", len(cards))
		a.dumper.Dump(ctx, page, a.spec.Name+"_parsed_zero")
	}
	return listings, nil
}

// parseCards turns card nodes into listings in document order, skipping
// cards without a usable link and repeated URLs.
func (s SiteSpec) parseCards(cards []render.Node, baseURL string) ([]model.Listing, error) {
	base, err := resolveBase(baseURL, s.ResolveAgainstOrigin)
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}

	seen := make(map[string]bool)
	var out []model.Listing
	for i, card := range cards {
		if len(out) >= MaxListings {
			break
		}
		link := resolveLink(base, s.href(card))
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true

		title := firstText(card, s.Title)
		if title == "" {
			title = fmt.Sprintf("listing-%d", i)
		}
		l := model.NewListing(s.Name, title, link)
		l.PriceTotal = parsePrice(firstText(card, s.Price))
		l.Rating = parseRating(firstText(card, s.Rating))
		l.Reviews = parseCount(firstText(card, s.Reviews))
		l.Location = firstText(card, s.Location)
		if len(s.Cancel) > 0 {
			l.FreeCancel = parseFreeCancel(firstText(card, s.Cancel))
		}
		out = append(out, l)
	}
	return out, nil
}

func (s SiteSpec) href(card render.Node) string {
	if s.SelfLink {
		if v, ok := card.Attr("href"); ok && v != "" {
			return v
		}
	}
	return firstAttr(card, s.Link, "href")
}
