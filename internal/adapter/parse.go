package adapter

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/render"
)

var (
	digitRunRegex = regexp.MustCompile(`\d[\d,]*`)
	decimalRegex  = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// parsePrice returns the first digit run of s as an integer total, ignoring
// '.' and ',' thousands separators. Returns nil when s holds no digits.
func parsePrice(s string) *int64 {
	m := digitRunRegex.FindString(strings.ReplaceAll(s, ".", ""))
	if m == "" {
		return nil
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(m, ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseRating returns the first integer or decimal token of s.
func parseRating(s string) *float64 {
	m := decimalRegex.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseCount returns the first digit run of s, commas removed.
func parseCount(s string) *int {
	m := digitRunRegex.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &v
}

var (
	freeCancelHints = []string{"무료 취소", "무료취소", "free cancellation", "free cancelation"}
	noRefundHints   = []string{"환불 불가", "환불불가", "non-refundable", "nonrefundable"}
)

// parseFreeCancel classifies a cancellation-policy text.
func parseFreeCancel(s string) model.TriState {
	lower := strings.ToLower(s)
	for _, h := range noRefundHints {
		if strings.Contains(lower, h) {
			return model.No
		}
	}
	for _, h := range freeCancelHints {
		if strings.Contains(lower, h) {
			return model.Yes
		}
	}
	return model.Unknown
}

// firstText returns the text of the first non-empty candidate.
func firstText(n render.Node, selectors []string) string {
	for _, sel := range selectors {
		for _, found := range n.Find(sel) {
			if t := found.Text(); t != "" {
				return t
			}
		}
	}
	return ""
}

// firstAttr returns attr of the first candidate element carrying it.
func firstAttr(n render.Node, selectors []string, attr string) string {
	for _, sel := range selectors {
		for _, found := range n.Find(sel) {
			if v, ok := found.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// resolveBase picks what hrefs are resolved against: the page origin or the
// page URL itself.
func resolveBase(pageURL string, againstOrigin bool) (*url.URL, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	if againstOrigin {
		return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
	}
	return u, nil
}

// resolveLink returns href as an absolute http(s) URL, or "" when it cannot be.
// An empty or fragment-only href points back at base and yields "".
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}
