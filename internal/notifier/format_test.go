package notifier

import (
	"context"
	"strings"
	"testing"

	"github.com/amishk599/staywatch/internal/model"
)

func TestFormatListing_AllFields(t *testing.T) {
	price := int64(1234567)
	rating := 8.7
	reviews := 312
	l := model.NewListing("booking", "Sea Hotel", "https://www.booking.com/hotel/kr/sea.html")
	l.PriceTotal = &price
	l.Rating = &rating
	l.Reviews = &reviews
	l.FreeCancel = model.Yes
	l.Location = "Sokcho"

	want := strings.Join([]string{
		"🏨 [booking] Sea Hotel",
		"💰 총액: ₩1,234,567",
		"⭐ 평점: 8.7 (후기 312)",
		"🧾 무료취소 ✅",
		"📍 Sokcho",
		"🔗 https://www.booking.com/hotel/kr/sea.html",
	}, "\n")
	if got := FormatListing(l); got != want {
		t.Errorf("FormatListing() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatListing_MissingFields(t *testing.T) {
	l := model.NewListing("trip", "listing-3", "https://kr.trip.com/hotels/x/")
	got := FormatListing(l)

	for _, want := range []string{"💰 총액: -", "⭐ 평점: - (후기 -)", "🧾 모름"} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "📍") {
		t.Errorf("message has location line without location:\n%s", got)
	}

	l.FreeCancel = model.No
	if !strings.Contains(FormatListing(l), "🧾 무료취소 ❌") {
		t.Error("explicit no free cancellation not rendered")
	}
}

type captureNotifier struct {
	texts []string
}

func (c *captureNotifier) Deliver(_ context.Context, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func TestSendTestMessage(t *testing.T) {
	c := &captureNotifier{}
	if err := SendTestMessage(context.Background(), c); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(c.texts) != 1 || !strings.Contains(c.texts[0], "[staywatch]") {
		t.Errorf("sent = %v", c.texts)
	}
}
