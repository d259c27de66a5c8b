package notifier

import (
	"context"

	"github.com/amishk599/staywatch/internal/model"
)

// SendTestMessage sends a sample listing to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	price := int64(123456)
	rating := 9.1
	reviews := 42
	l := model.NewListing("staywatch", "Test Notification (integration verified)", "https://github.com/amishk599/staywatch")
	l.PriceTotal = &price
	l.Rating = &rating
	l.Reviews = &reviews
	l.FreeCancel = model.Yes
	l.Location = "Everywhere"
	return n.Deliver(ctx, FormatListing(l))
}
