package engine

import (
	"context"
	"fmt"
	"strings"

	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/tradelog"
	"options-signal-bot/internal/types"
)

const (
	CloseProfitTarget   = "profit_target"
	CloseSignalReversal = "signal_reversal"
)

// monitorTrades closes every open trade whose current value has reached its
// profit target. A trade that cannot be priced is retried next cycle.
func (b *Bot) monitorTrades(ctx context.Context, res *types.CycleResult) {
	for _, t := range b.pm.active() {
		if !b.running.Load() {
			return
		}
		value, err := b.currentValue(ctx, t)
		if err != nil {
			logger.Warn(ctx, "Trade value unavailable, retrying next cycle",
				"symbol", t.Symbol, "option_symbol", t.OptionSymbol, "order_id", t.OrderID, "error", err)
			continue
		}
		logger.Debug(ctx, "Trade monitored",
			"symbol", t.Symbol,
			"option_symbol", t.OptionSymbol,
			"value", value,
			"profit_target", t.ProfitTarget,
		)
		if value >= t.ProfitTarget {
			b.closeTrade(ctx, t, CloseProfitTarget, value, res)
		}
	}
}

// currentValue prices an open trade at the option quote midpoint.
func (b *Bot) currentValue(ctx context.Context, t types.ActiveTrade) (float64, error) {
	q, err := b.broker.GetOptionQuote(ctx, t.OptionSymbol)
	if err != nil {
		return 0, err
	}
	mid := q.Mid()
	if mid <= 0 {
		return 0, fmt.Errorf("%s: no bid or ask", t.OptionSymbol)
	}
	return positionValue(t.Contracts, mid), nil
}

func (b *Bot) closeTrade(ctx context.Context, t types.ActiveTrade, reason string, value float64, res *types.CycleResult) {
	resp, err := b.exec.liquidate(ctx, t, reason)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to close trade", err, "symbol", t.Symbol, "order_id", t.OrderID, "reason", reason)
		res.Errors = append(res.Errors, err.Error())
		b.recordError(err.Error())
		actx, cancel := alertCtx(ctx)
		defer cancel()
		if aerr := b.alerter.SendEmergencyAlert(actx,
			fmt.Sprintf("Trade Close Failed - %s", t.Symbol),
			fmt.Sprintf("Failed to close %s (%s)", t.OptionSymbol, reason),
			err,
		); aerr != nil {
			logger.Warn(ctx, "Emergency alert failed", "symbol", t.Symbol, "error", aerr)
		}
		return
	}
	if !b.pm.close(t.OrderID, reason, value, b.now()) {
		return
	}
	res.Closed = append(res.Closed, t.OrderID)

	pnl := value - t.TotalCost
	exitPremium := value / float64(t.Contracts*contractMultiplier)
	logger.Trade(ctx, t.Symbol, types.SideSell, t.Contracts, exitPremium, resp.OrderID,
		"option_symbol", t.OptionSymbol,
		"opened_by", t.OrderID,
		"reason", reason,
		"exit_value", value,
		"pnl", pnl,
	)
	b.journalTrade(ctx, tradelog.Entry{
		Symbol:       t.Symbol,
		OptionSymbol: t.OptionSymbol,
		Side:         types.SideSell,
		Qty:          t.Contracts,
		Price:        exitPremium,
		OrderID:      resp.OrderID,
		Reason:       reason,
		Confidence:   1,
		Extra:        map[string]any{"opened_by": t.OrderID, "pnl": pnl},
	})

	actx, cancel := alertCtx(ctx)
	defer cancel()
	subject := fmt.Sprintf("Closed %s Trade: %s %g %s", strings.ToUpper(t.OptionType), t.Symbol, t.Strike, t.Expiration.Format("Jan 2"))
	msg := fmt.Sprintf("Closed %d contracts (%s). Exit value $%.2f against cost $%.2f, P&L $%.2f.", t.Contracts, reason, value, t.TotalCost, pnl)
	if err := b.alerter.SendTradingAlert(actx, subject, msg, nil); err != nil {
		logger.Warn(ctx, "Close alert failed", "symbol", t.Symbol, "error", err)
	}
}
