package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{ScrollPulses: 2, ScrollStep: 100}
}

type recordingDumper struct {
	tags []string
}

func (d *recordingDumper) Dump(_ context.Context, _ render.Page, tag string) {
	d.tags = append(d.tags, tag)
}

type staticRenderer struct {
	html     string
	err      error
	released int
}

func (r *staticRenderer) Open(_ context.Context, url string) (render.Page, func(), error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	p, err := render.NewStaticPage(url, r.html)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { r.released++ }, nil
}

func extract(t *testing.T, spec SiteSpec, baseURL, html string) ([]model.Listing, *recordingDumper, error) {
	t.Helper()
	page, err := render.NewStaticPage(baseURL, html)
	require.NoError(t, err)
	d := &recordingDumper{}
	a := NewSiteAdapter(spec, nil, d, testOptions(), discardLogger())
	listings, err := a.Extract(context.Background(), page, baseURL)
	return listings, d, err
}

const bookingHTML = `<html><body>
<div data-testid="property-card">
  <a data-testid="title-link" href="https://www.booking.com/hotel/kr/sea.ko.html?aid=1"><div data-testid="title">Sea Hotel</div></a>
  <span data-testid="price-and-discounted-price">₩ 180,000</span>
  <div data-testid="review-score"><div aria-hidden="true">8.7</div><div data-testid="review-count">1,204 reviews</div></div>
  <span data-testid="address">Sokcho</span>
  <div data-testid="cancellation-policy">무료 취소</div>
</div>
<div data-testid="property-card">
  <a data-testid="title-link" href="/hotel/kr/harbor.html"></a>
</div>
<div data-testid="property-card">
  <div data-testid="title">No Link Inn</div>
</div>
</body></html>`

func TestExtract_Booking(t *testing.T) {
	listings, d, err := extract(t, Booking, "https://www.booking.com/searchresults.html?ss=Sokcho", bookingHTML)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Empty(t, d.tags)

	sea := listings[0]
	assert.Equal(t, "booking", sea.Provider)
	assert.Equal(t, "Sea Hotel", sea.Title)
	assert.Equal(t, "https://www.booking.com/hotel/kr/sea.ko.html?aid=1", sea.URL)
	assert.Equal(t, model.ListingID(sea.URL), sea.ID)
	require.NotNil(t, sea.PriceTotal)
	assert.Equal(t, int64(180000), *sea.PriceTotal)
	require.NotNil(t, sea.Rating)
	assert.Equal(t, 8.7, *sea.Rating)
	require.NotNil(t, sea.Reviews)
	assert.Equal(t, 1204, *sea.Reviews)
	assert.Equal(t, "Sokcho", sea.Location)
	assert.Equal(t, model.Yes, sea.FreeCancel)

	harbor := listings[1]
	assert.Equal(t, "https://www.booking.com/hotel/kr/harbor.html", harbor.URL)
	assert.Equal(t, "listing-1", harbor.Title)
	assert.Nil(t, harbor.PriceTotal)
	assert.Nil(t, harbor.Rating)
	assert.Nil(t, harbor.Reviews)
	assert.Equal(t, model.Unknown, harbor.FreeCancel)
}

const tripHTML = `<html><body>
<a href="/hotels/sokcho-hotel-detail-1/"><h3>Ocean</h3><span class="price-box">₩99,000</span></a>
<a href="/hotels/sokcho-hotel-detail-1/"><h3>Ocean again</h3></a>
<a href="/hotels/sokcho-hotel-detail-2/"><h3>Pine</h3><span class="review-score">4.6/5</span></a>
</body></html>`

func TestExtract_TripAnchorContainerDedupsByURL(t *testing.T) {
	listings, _, err := extract(t, Trip, "https://kr.trip.com/hotels/list?city=Sokcho", tripHTML)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "https://kr.trip.com/hotels/sokcho-hotel-detail-1/", listings[0].URL)
	assert.Equal(t, "Ocean", listings[0].Title)
	require.NotNil(t, listings[0].PriceTotal)
	assert.Equal(t, int64(99000), *listings[0].PriceTotal)

	assert.Equal(t, "Pine", listings[1].Title)
	require.NotNil(t, listings[1].Rating)
	assert.Equal(t, 4.6, *listings[1].Rating)
}

func TestExtract_BlockedPage(t *testing.T) {
	html := `<html><body><h1>Please complete the reCAPTCHA to continue</h1></body></html>`
	listings, d, err := extract(t, Agoda, "https://www.agoda.com/search", html)

	var blocked *model.BlockedError
	require.True(t, errors.As(err, &blocked), "expected BlockedError, got %v", err)
	assert.Equal(t, "agoda", blocked.Site)
	assert.Equal(t, "captcha", blocked.Marker)
	assert.Nil(t, listings)
	assert.Equal(t, []string{"agoda_blocked"}, d.tags)
}

func TestExtract_NoContainerIsEmptyNotError(t *testing.T) {
	html := `<html><body><p>검색 결과가 없습니다</p></body></html>`
	listings, d, err := extract(t, Agoda, "https://www.agoda.com/search", html)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, []string{"agoda_no_selector"}, d.tags)
}

func TestExtract_ContainerWithoutLinksDumps(t *testing.T) {
	html := `<div data-selenium="hotel-item"><span data-selenium="hotel-name">A</span></div>
<div data-selenium="hotel-item"><span data-selenium="hotel-name">B</span></div>`
	listings, d, err := extract(t, Agoda, "https://www.agoda.com/search", html)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, []string{"agoda_parsed_zero"}, d.tags)
}

func TestExtract_SecondContainerCandidate(t *testing.T) {
	html := `<ul><li data-selenium="hotel-item">
<a data-selenium="hotel-name" href="/ko-kr/pine-resort/hotel/sokcho-kr.html">Pine Resort</a>
<div data-selenium="display-price">KRW 210.000</div>
<span data-selenium="review-score">9.1</span>
<span data-selenium="review-count">(312)</span>
</li></ul>`
	listings, _, err := extract(t, Agoda, "https://www.agoda.com/search?city=1", html)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "https://www.agoda.com/ko-kr/pine-resort/hotel/sokcho-kr.html", l.URL)
	assert.Equal(t, int64(210000), *l.PriceTotal)
	assert.Equal(t, 9.1, *l.Rating)
	assert.Equal(t, 312, *l.Reviews)
}

func TestExtract_CapsAtMaxListings(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `<div data-testid="property-card"><a data-testid="title-link" href="/hotel/kr/h%d.html">H%d</a></div>`, i, i)
	}
	listings, _, err := extract(t, Booking, "https://www.booking.com/searchresults.html", b.String())
	require.NoError(t, err)
	require.Len(t, listings, MaxListings)
	assert.Equal(t, "https://www.booking.com/hotel/kr/h0.html", listings[0].URL)
	assert.Equal(t, "https://www.booking.com/hotel/kr/h24.html", listings[MaxListings-1].URL)
}

func TestFetchListings_ReleasesPage(t *testing.T) {
	r := &staticRenderer{html: bookingHTML}
	a := NewSiteAdapter(Booking, r, nil, testOptions(), discardLogger())

	listings, err := a.FetchListings(context.Background(), "https://www.booking.com/searchresults.html")
	require.NoError(t, err)
	assert.Len(t, listings, 2)
	assert.Equal(t, 1, r.released)
}

func TestFetchListings_OpenError(t *testing.T) {
	r := &staticRenderer{err: context.DeadlineExceeded}
	a := NewSiteAdapter(Trip, r, nil, testOptions(), discardLogger())

	_, err := a.FetchListings(context.Background(), "https://kr.trip.com/hotels/list")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, r.released)
}
