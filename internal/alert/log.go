package alert

import (
	"context"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

// Log writes alerts to the structured log only. It is the fallback when no
// chat is configured.
type Log struct{}

var _ interfaces.Alerter = Log{}

func (Log) SendTradingAlert(ctx context.Context, subject, message string, d *types.TradeDetails) error {
	fields := []any{"type", "ALERT", "subject", subject, "message", message}
	if d != nil {
		fields = append(fields,
			"symbol", d.Symbol,
			"option_symbol", d.OptionSymbol,
			"contracts", d.Contracts,
			"premium", d.Premium,
			"total_cost", d.TotalCost,
			"confidence", d.Confidence,
			"price_source", d.PriceSource,
			"real_data", d.IsRealData,
		)
	}
	logger.Info(ctx, "Trading alert", fields...)
	return nil
}

func (Log) SendEmergencyAlert(ctx context.Context, subject, message string, cause error) error {
	logger.ErrorWithErr(ctx, "Emergency alert", cause, "type", "ALERT", "subject", subject, "message", message)
	return nil
}

func (Log) SendDailyReport(ctx context.Context, perf types.Performance, trades []types.ActiveTrade, errs []string) error {
	logger.Info(ctx, "Daily report",
		"type", "REPORT",
		"equity", perf.TotalEquity,
		"day_change", perf.DayChange,
		"realized_pl", perf.RealizedPL,
		"total_trades", perf.TotalTrades,
		"buying_power", perf.BuyingPower,
		"trades", len(trades),
		"headlines", len(perf.MarketHeadlines),
		"errors", len(errs),
	)
	return nil
}
