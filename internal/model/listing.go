package model

import (
	"context"
	"sort"
	"strings"
)

// maxIDLen bounds the length of a derived listing ID.
const maxIDLen = 120

// TriState is a boolean that may be unknown because the site did not expose it.
type TriState int

const (
	Unknown TriState = iota
	Yes
	No
)

func (t TriState) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Listing is one hotel offer extracted from one search page.
// Optional fields are nil when the page did not expose them.
type Listing struct {
	Provider   string   // site name, e.g. "booking"
	ID         string   // derived from URL, stable across runs
	Title      string   // never empty
	URL        string   // absolute
	PriceTotal *int64   // total stay price, no minor units
	Rating     *float64 // review score as shown by the site
	Reviews    *int     // number of reviews
	FreeCancel TriState
	Location   string
}

// NewListing builds a Listing whose ID is derived from url.
func NewListing(provider, title, url string) Listing {
	return Listing{
		Provider: provider,
		ID:       ListingID(url),
		Title:    title,
		URL:      url,
	}
}

// ListingID derives a stable identifier from an absolute listing URL.
// Every run of non-alphanumeric characters becomes a single underscore and
// the result is truncated to 120 bytes.
func ListingID(url string) string {
	var b strings.Builder
	b.Grow(len(url))
	sep := false
	for i := 0; i < len(url); i++ {
		c := url[i]
		if isAlnum(c) {
			b.WriteByte(c)
			sep = false
			continue
		}
		if !sep {
			b.WriteByte('_')
			sep = true
		}
	}
	id := b.String()
	if len(id) > maxIDLen {
		id = id[:maxIDLen]
	}
	return id
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// IDSet is the set of listing IDs already notified for one site.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Sorted returns the IDs in ascending order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Rules are the operator's acceptance criteria. Bounds are inclusive.
type Rules struct {
	MinTotalPrice     int64
	MaxTotalPrice     int64
	MinRating         float64
	RequireFreeCancel bool
}

// Query is one search page to visit for a site.
type Query struct {
	Name string
	URL  string
}

// ListingFetcher renders a search page and extracts its listings.
type ListingFetcher interface {
	FetchListings(ctx context.Context, url string) ([]Listing, error)
}

// SeenStore persists the IDs already notified for a single site.
type SeenStore interface {
	Load(ctx context.Context) (IDSet, error)
	Save(ctx context.Context, ids IDSet) error
}

// Notifier delivers one pre-formatted message.
type Notifier interface {
	Deliver(ctx context.Context, text string) error
}

// ListingFilter decides whether a listing matches the operator's rules.
type ListingFilter interface {
	Match(l Listing) bool
}
