package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/tradelog"
	"options-signal-bot/internal/types"
)

// act handles one ranked opportunity. Failures are contained here so the
// remaining opportunities still run.
func (b *Bot) act(ctx context.Context, op types.Opportunity, chain []types.OptionContract, res *types.CycleResult) {
	var err error
	func() {
		defer recoverSymbol(ctx, op.Symbol, &err)
		switch op.Action {
		case types.ActionCloseLong, types.ActionCloseShort:
			b.closeOnReversal(ctx, op, res)
		case types.ActionBuy, types.ActionSell:
			err = b.openTrade(ctx, op, chain, res)
		}
	}()
	if err != nil {
		b.tradeFailed(ctx, op, err, res)
	}
}

func (b *Bot) openTrade(ctx context.Context, op types.Opportunity, chain []types.OptionContract, res *types.CycleResult) error {
	if open := b.pm.activeOn(op.Symbol); len(open) > 0 {
		logger.Risk(ctx, op.Symbol, "POSITION_EXISTS",
			"action", op.Action,
			"option_type", op.OptionType,
			"open_trades", len(open),
			"option_symbol", open[0].OptionSymbol,
		)
		return nil
	}
	p, err := b.exec.plan(ctx, op, chain)
	if err != nil {
		if errors.Is(err, ErrNoMatchingContract) || errors.Is(err, ErrInsufficientBuyingPower) {
			logger.Risk(ctx, op.Symbol, "TRADE_ABORTED", "action", op.Action, "option_type", op.OptionType, "reason", err.Error())
			return nil
		}
		return err
	}

	t, resp, err := b.exec.open(ctx, op, p)
	if err != nil {
		return err
	}
	if !b.pm.add(t) {
		logger.Warn(ctx, "Order id already tracked, ignoring", "symbol", op.Symbol, "order_id", t.OrderID)
		return nil
	}
	b.totalTrades.Add(1)
	res.Executed = append(res.Executed, resp)

	logger.Trade(ctx, op.Symbol, types.SideBuy, t.Contracts, t.EntryPrice, t.OrderID,
		"option_symbol", t.OptionSymbol,
		"option_type", t.OptionType,
		"strike", t.Strike,
		"expiration", t.Expiration.Format("2006-01-02"),
		"total_cost", t.TotalCost,
		"profit_target", t.ProfitTarget,
		"confidence", op.Confidence,
		"status", resp.Status,
		"price_source", op.PriceSource,
		"real_data", op.IsRealData,
	)
	b.journalTrade(ctx, tradelog.Entry{
		Symbol:       op.Symbol,
		OptionSymbol: t.OptionSymbol,
		Side:         types.SideBuy,
		Qty:          t.Contracts,
		Price:        t.EntryPrice,
		OrderID:      t.OrderID,
		Reason:       Reason(op),
		Confidence:   op.Confidence,
		Extra: map[string]any{
			"strike":        t.Strike,
			"expiration":    t.Expiration.Format("2006-01-02"),
			"total_cost":    t.TotalCost,
			"profit_target": t.ProfitTarget,
			"price_source":  op.PriceSource,
			"real_data":     op.IsRealData,
		},
	})

	actx, cancel := alertCtx(ctx)
	defer cancel()
	subject := fmt.Sprintf("New %s Trade: %s %g %s", strings.ToUpper(t.OptionType), t.Symbol, t.Strike, t.Expiration.Format("Jan 2"))
	msg := fmt.Sprintf("A new options trade has been executed with a %.0f%% profit target.", b.cfg.Trading.ProfitTarget*100)
	if err := b.alerter.SendTradingAlert(actx, subject, msg, &types.TradeDetails{
		Symbol:       t.Symbol,
		OptionSymbol: t.OptionSymbol,
		OptionType:   t.OptionType,
		Strike:       t.Strike,
		Expiration:   t.Expiration,
		Contracts:    t.Contracts,
		Premium:      t.EntryPrice,
		TotalCost:    t.TotalCost,
		ProfitTarget: t.ProfitTarget,
		Confidence:   op.Confidence,
		Scores:       op.Scores,
		OrderID:      t.OrderID,
		PriceSource:  op.PriceSource,
		IsRealData:   op.IsRealData,
	}); err != nil {
		logger.Warn(ctx, "Trade alert failed", "symbol", t.Symbol, "error", err)
	}
	return nil
}

// closeOnReversal sells to close the bot's open trades on the underlying.
// A brokerage position the bot did not open is reported and left alone.
func (b *Bot) closeOnReversal(ctx context.Context, op types.Opportunity, res *types.CycleResult) {
	trades := b.pm.activeOn(op.Symbol)
	if len(trades) == 0 {
		fields := []any{"action", op.Action, "confidence", op.Confidence}
		if pos := b.pm.exposure(op.Symbol); pos != nil {
			fields = append(fields, "side", pos.Side, "qty", pos.Qty, "unrealized_pl", pos.UnrealizedPL)
		}
		logger.Risk(ctx, op.Symbol, "UNTRACKED_POSITION", fields...)
		return
	}
	for _, t := range trades {
		value, err := b.currentValue(ctx, t)
		if err != nil {
			logger.Warn(ctx, "Exit value unavailable, booking at cost", "symbol", t.Symbol, "option_symbol", t.OptionSymbol, "error", err)
			value = t.TotalCost
		}
		b.closeTrade(ctx, t, CloseSignalReversal, value, res)
	}
}

func (b *Bot) tradeFailed(ctx context.Context, op types.Opportunity, err error, res *types.CycleResult) {
	logger.ErrorWithErr(ctx, "Trade execution failed", err, "symbol", op.Symbol, "action", op.Action, "option_type", op.OptionType)
	res.Errors = append(res.Errors, err.Error())
	b.recordError(err.Error())

	actx, cancel := alertCtx(ctx)
	defer cancel()
	if aerr := b.alerter.SendEmergencyAlert(actx,
		fmt.Sprintf("Trade Execution Failed - %s", op.Symbol),
		fmt.Sprintf("Failed to execute %s option trade for %s", op.OptionType, op.Symbol),
		err,
	); aerr != nil {
		logger.Warn(ctx, "Emergency alert failed", "symbol", op.Symbol, "error", aerr)
	}
}
