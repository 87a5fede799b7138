package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TelegramNotifier delivers guardian alerts to a Telegram chat. Delivery is
// best effort: the caller logs a failed send and moves on, the trading loop
// never blocks on it.
type TelegramNotifier struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

var levelEmoji = map[string]string{
	"info":    "ℹ️",
	"warning": "⚠️",
	"error":   "🚨",
	"success": "✅",
}

// SendAlert posts one message. Unknown levels fall back to info.
func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji, ok := levelEmoji[level]
	if !ok {
		emoji = levelEmoji["info"]
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", fmt.Sprintf("%s *Position Guardian*\n\n%s", emoji, message))
	form.Set("parse_mode", "Markdown")

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	resp, err := t.client.Post(endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
