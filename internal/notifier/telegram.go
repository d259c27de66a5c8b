package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amishk599/staywatch/internal/model"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends messages to one chat through the Telegram Bot API.
type TelegramNotifier struct {
	apiURL     string
	token      string
	chatID     string
	httpClient *http.Client
	logger     *slog.Logger
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// NewTelegramNotifier returns model.ErrMissingCredentials when token or
// chatID is empty. An empty apiURL means DefaultTelegramAPI.
func NewTelegramNotifier(apiURL, token, chatID string, httpClient *http.Client, logger *slog.Logger) (*TelegramNotifier, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("telegram: TG_TOKEN and TG_CHAT_ID must both be set: %w", model.ErrMissingCredentials)
	}
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	return &TelegramNotifier{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Deliver posts text to the chat. Link previews stay enabled.
func (n *TelegramNotifier) Deliver(ctx context.Context, text string) error {
	url := n.apiURL + "/bot" + n.token + "/sendMessage"
	msg := telegramMessage{ChatID: n.chatID, Text: text}
	if err := postJSON(ctx, n.httpClient, "telegram", url, msg); err != nil {
		return err
	}
	n.logger.Debug("telegram message sent", "chat_id", n.chatID)
	return nil
}
