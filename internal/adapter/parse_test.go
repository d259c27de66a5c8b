package adapter

import (
	"net/url"
	"strings"
	"testing"

	"github.com/amishk599/staywatch/internal/model"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"₩120,000", 120000, true},
		{"총액 KRW 1.234.567", 1234567, true},
		{"₩ 98,500 (세금 포함)", 98500, true},
		{"가격 정보 없음", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parsePrice(tt.in)
			if (got != nil) != tt.ok {
				t.Fatalf("parsePrice(%q) = %v, want ok=%v", tt.in, got, tt.ok)
			}
			if got != nil && *got != tt.want {
				t.Errorf("parsePrice(%q) = %d, want %d", tt.in, *got, tt.want)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"평점 8.9 훌륭해요", 8.9, true},
		{"Scored 9", 9, true},
		{"4.6/5", 4.6, true},
		{"no score", 0, false},
	}
	for _, tt := range tests {
		got := parseRating(tt.in)
		if (got != nil) != tt.ok {
			t.Fatalf("parseRating(%q) = %v, want ok=%v", tt.in, got, tt.ok)
		}
		if got != nil && *got != tt.want {
			t.Errorf("parseRating(%q) = %v, want %v", tt.in, *got, tt.want)
		}
	}
}

func TestParseCount(t *testing.T) {
	if got := parseCount("후기 1,204개"); got == nil || *got != 1204 {
		t.Errorf("parseCount = %v, want 1204", got)
	}
	if got := parseCount("후기 없음"); got != nil {
		t.Errorf("parseCount = %v, want nil", *got)
	}
}

func TestParseFreeCancel(t *testing.T) {
	tests := []struct {
		in   string
		want model.TriState
	}{
		{"무료 취소 가능", model.Yes},
		{"Free cancellation", model.Yes},
		{"환불 불가", model.No},
		{"Non-refundable", model.No},
		{"조식 포함", model.Unknown},
		{"", model.Unknown},
	}
	for _, tt := range tests {
		if got := parseFreeCancel(tt.in); got != tt.want {
			t.Errorf("parseFreeCancel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveLink(t *testing.T) {
	page := "https://kr.trip.com/hotels/list?city=1"
	origin, _ := resolveBase(page, true)
	visited, _ := resolveBase(page, false)

	tests := []struct {
		name string
		base *url.URL
		href string
		want string
	}{
		{"absolute", origin, "https://www.booking.com/hotel/a.html", "https://www.booking.com/hotel/a.html"},
		{"root relative", origin, "/hotel/a.html", "https://kr.trip.com/hotel/a.html"},
		{"relative to origin", origin, "detail/1", "https://kr.trip.com/detail/1"},
		{"relative to page", visited, "detail/1", "https://kr.trip.com/hotels/detail/1"},
		{"fragment dropped", origin, "/h/1#reviews", "https://kr.trip.com/h/1"},
		{"javascript", origin, "javascript:void(0)", ""},
		{"mailto", origin, "mailto:a@b.c", ""},
		{"empty href", origin, "", ""},
		{"whitespace href", visited, "  \t ", ""},
		{"fragment only", visited, "#top", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLink(tt.base, tt.href); got != tt.want {
				t.Errorf("resolveLink(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"<div>Please solve this CAPTCHA</div>", "captcha"},
		{"<title>Just a moment...</title>", "just a moment"},
		{"<h1>Access Denied</h1>", "access denied"},
		{"<div class='hotel'>Bottom floor</div>", ""},
	}
	for _, tt := range tests {
		if got := DetectBlock(tt.content); got != tt.want {
			t.Errorf("DetectBlock(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestBuildSearchURL(t *testing.T) {
	s := Search{City: "Sokcho", CheckIn: "2026-03-10", CheckOut: "2026-03-12", Adults: 2}

	got, err := BuildSearchURL("booking", s)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	for _, want := range []string{"ss=Sokcho", "checkin=2026-03-10", "group_adults=2", "no_rooms=1"} {
		if !strings.Contains(got, want) {
			t.Errorf("booking url %q missing %q", got, want)
		}
	}

	got, err = BuildSearchURL("agoda", s)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	for _, want := range []string{"cityName=Sokcho", "checkOut=2026-03-12", "currency=KRW", "locale=ko-kr"} {
		if !strings.Contains(got, want) {
			t.Errorf("agoda url %q missing %q", got, want)
		}
	}

	if _, err := BuildSearchURL("expedia", s); err == nil {
		t.Error("expected error for unsupported site")
	}
	if _, err := BuildSearchURL("trip", Search{}); err == nil {
		t.Error("expected error for missing city")
	}
}
