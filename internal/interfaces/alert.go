package interfaces

import (
	"context"

	"options-signal-bot/internal/types"
)

// Alerter delivers operator notifications. Implementations must not block
// the strategy cycle for long; callers pass a bounded context.
type Alerter interface {
	SendTradingAlert(ctx context.Context, subject, message string, details *types.TradeDetails) error
	SendEmergencyAlert(ctx context.Context, subject, message string, cause error) error
	SendDailyReport(ctx context.Context, perf types.Performance, trades []types.ActiveTrade, errs []string) error
}
