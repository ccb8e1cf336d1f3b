package alert

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

// sender is the part of *tgbotapi.BotAPI the alerter needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts alerts to one chat.
type Telegram struct {
	api    sender
	chatID int64
	now    func() time.Time
}

var _ interfaces.Alerter = (*Telegram)(nil)

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info(context.Background(), "Telegram alerter initialized", "username", api.Self.UserName)
	return newTelegram(api, chatID), nil
}

func newTelegram(api sender, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID, now: time.Now}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (t *Telegram) SendTradingAlert(ctx context.Context, subject, message string, details *types.TradeDetails) error {
	return t.send(ctx, FormatTradingAlert(subject, message, details, t.now()))
}

func (t *Telegram) SendEmergencyAlert(ctx context.Context, subject, message string, cause error) error {
	return t.send(ctx, FormatEmergencyAlert(subject, message, cause, t.now()))
}

func (t *Telegram) SendDailyReport(ctx context.Context, perf types.Performance, trades []types.ActiveTrade, errs []string) error {
	return t.send(ctx, FormatDailyReport(perf, trades, errs, t.now()))
}
