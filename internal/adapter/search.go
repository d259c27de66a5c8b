package adapter

import (
	"fmt"
	"net/url"
	"strconv"
)

// Search is a structured hotel search, turned into a site URL by BuildSearchURL.
type Search struct {
	City     string `yaml:"city"`
	CheckIn  string `yaml:"checkin"`  // YYYY-MM-DD
	CheckOut string `yaml:"checkout"` // YYYY-MM-DD
	Adults   int    `yaml:"adults"`
	Children int    `yaml:"children"`
	Rooms    int    `yaml:"rooms"`
}

// BuildSearchURL returns the search results URL for site.
func BuildSearchURL(site string, s Search) (string, error) {
	adults, rooms := s.Adults, s.Rooms
	if adults <= 0 {
		adults = 2
	}
	if rooms <= 0 {
		rooms = 1
	}
	q := url.Values{}
	var base string

	switch site {
	case Booking.Name:
		base = "https://www.booking.com/searchresults.html"
		q.Set("ss", s.City)
		q.Set("checkin", s.CheckIn)
		q.Set("checkout", s.CheckOut)
		q.Set("group_adults", strconv.Itoa(adults))
		q.Set("group_children", strconv.Itoa(s.Children))
		q.Set("no_rooms", strconv.Itoa(rooms))
	case Agoda.Name:
		base = "https://www.agoda.com/search"
		q.Set("cityName", s.City)
		q.Set("checkIn", s.CheckIn)
		q.Set("checkOut", s.CheckOut)
		q.Set("adults", strconv.Itoa(adults))
		q.Set("children", strconv.Itoa(s.Children))
		q.Set("rooms", strconv.Itoa(rooms))
		q.Set("locale", "ko-kr")
		q.Set("currency", "KRW")
	case Trip.Name:
		base = "https://kr.trip.com/hotels/list"
		q.Set("city", s.City)
		q.Set("checkin", s.CheckIn)
		q.Set("checkout", s.CheckOut)
		q.Set("adult", strconv.Itoa(adults))
		q.Set("children", strconv.Itoa(s.Children))
		q.Set("crn", strconv.Itoa(rooms))
	default:
		return "", fmt.Errorf("unsupported site %q", site)
	}
	if s.City == "" {
		return "", fmt.Errorf("%s search: city is required", site)
	}
	return base + "?" + q.Encode(), nil
}
