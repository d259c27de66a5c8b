package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/staywatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes messages to the given logger instead of a chat.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each message via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Deliver logs text. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Deliver(_ context.Context, text string) error {
	n.logger.Info("new listing", "message", text)
	return nil
}
