package notifier

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/amishk599/staywatch/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends listing alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each message to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Deliver posts text as a single Block Kit section. A 429 comes back as a
// DeliveryError carrying Retry-After for the retry decorator.
func (s *SlackNotifier) Deliver(ctx context.Context, text string) error {
	if err := postJSON(ctx, s.httpClient, "slack", s.webhookURL, buildPayload(text)); err != nil {
		return err
	}
	s.logger.Debug("slack message sent")
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"` // notification fallback
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildPayload(text string) slackPayload {
	return slackPayload{
		Text: text,
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: text},
			},
			{Type: "divider"},
		},
	}
}
