package adapter

import (
	"fmt"
	"sort"
)

// Booking reads booking.com search results. Hrefs are absolute.
var Booking = SiteSpec{
	Name:       "booking",
	Containers: []string{`[data-testid="property-card"]`},
	Title:      []string{`[data-testid="title"]`},
	Link:       []string{`a[data-testid="title-link"]`, `a[data-testid="property-card-desktop-single-image"]`},
	Price:      []string{`[data-testid="price-and-discounted-price"]`, `[data-testid="price"]`},
	Rating:     []string{`[data-testid="review-score"] [aria-hidden="true"]`, `[data-testid="review-score"]`},
	Reviews:    []string{`[data-testid="review-score"] [data-testid="review-count"]`, `[data-testid="review-count"]`},
	Location:   []string{`[data-testid="address"]`},
	Cancel:     []string{`[data-testid="cancellation-policy"]`, `[data-testid="property-card-unit-configuration"]`},
	Dismiss:    []string{`button#onetrust-accept-btn-handler`},

	ResolveAgainstOrigin: true,
}

// Agoda reads agoda.com search results. Hrefs are site-relative.
var Agoda = SiteSpec{
	Name:       "agoda",
	Containers: []string{`div[data-selenium="hotel-item"]`, `li[data-selenium="hotel-item"]`},
	Title:      []string{`[data-selenium="hotel-name"]`},
	Link:       []string{`a[data-selenium="hotel-name"]`, `a[href*="hotel"]`},
	Price:      []string{`[data-selenium="display-price"]`, `[data-selenium="price"]`},
	Rating:     []string{`[data-selenium="hotel-rating"]`, `span[data-selenium="review-score"]`},
	Reviews:    []string{`[data-selenium="review-count"]`},
	Location:   []string{`[data-selenium="area-name"]`, `[data-selenium="area-city-text"]`},
	Cancel:     []string{`[data-selenium="freecancellation"]`, `[data-selenium="pill-container"]`},
	Dismiss:    []string{`button[aria-label="Close"]`},

	ResolveAgainstOrigin: true,
}

// Trip reads trip.com search results. Layouts vary a lot, so the container
// list ends with a bare hotel anchor, and hrefs resolve against the page.
var Trip = SiteSpec{
	Name: "trip",
	Containers: []string{
		`[data-testid="hotel-card"]`,
		`[data-testid="property-card"]`,
		`div[property="itemListElement"]`,
		`a[href*="/hotels/"]`,
	},
	Title:    []string{`[data-testid="hotel-name"]`, `h2`, `h3`},
	Link:     []string{`a[href*="/hotels/"]`, `a[href]`},
	Price:    []string{`[data-testid="price"]`, `[class*="price"]`, `[class*="Price"]`},
	Rating:   []string{`[data-testid="rating"]`, `[class*="score"]`, `[class*="Score"]`},
	Reviews:  []string{`[data-testid="review-count"]`, `[class*="comment"]`},
	Location: []string{`[data-testid="location"]`, `[class*="position"]`, `[class*="location"]`},
	Cancel:   []string{`[class*="cancel"]`, `[class*="Cancel"]`},

	SelfLink: true,
}

var registry = map[string]SiteSpec{
	Booking.Name: Booking,
	Agoda.Name:   Agoda,
	Trip.Name:    Trip,
}

// Lookup returns the spec for a site name.
func Lookup(name string) (SiteSpec, error) {
	s, ok := registry[name]
	if !ok {
		return SiteSpec{}, fmt.Errorf("unsupported site %q", name)
	}
	return s, nil
}

// Sites lists the supported site names in order.
func Sites() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
