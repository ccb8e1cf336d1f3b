package alert

import (
	"context"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
)

// New returns the configured alerter. A telegram provider with missing or
// bad credentials falls back to the log alerter.
func New(ctx context.Context, provider, token string, chatID int64) interfaces.Alerter {
	if provider != "telegram" {
		return Log{}
	}
	tg, err := NewTelegram(token, chatID)
	if err != nil {
		logger.Warn(ctx, "Telegram alerts disabled, using log alerts", "error", err)
		return Log{}
	}
	return tg
}
