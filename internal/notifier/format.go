package notifier

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/staywatch/internal/model"
)

// FormatListing renders the message sent for a new listing.
func FormatListing(l model.Listing) string {
	price := "-"
	if l.PriceTotal != nil {
		price = "₩" + humanize.Comma(*l.PriceTotal)
	}
	rating := "-"
	if l.Rating != nil {
		rating = strconv.FormatFloat(*l.Rating, 'f', -1, 64)
	}
	reviews := "-"
	if l.Reviews != nil {
		reviews = strconv.Itoa(*l.Reviews)
	}

	var b strings.Builder
	b.WriteString("🏨 [" + l.Provider + "] " + l.Title + "\n")
	b.WriteString("💰 총액: " + price + "\n")
	b.WriteString("⭐ 평점: " + rating + " (후기 " + reviews + ")\n")
	b.WriteString("🧾 " + cancelLabel(l.FreeCancel) + "\n")
	if l.Location != "" {
		b.WriteString("📍 " + l.Location + "\n")
	}
	b.WriteString("🔗 " + l.URL)
	return b.String()
}

func cancelLabel(t model.TriState) string {
	switch t {
	case model.Yes:
		return "무료취소 ✅"
	case model.No:
		return "무료취소 ❌"
	default:
		return "모름"
	}
}
