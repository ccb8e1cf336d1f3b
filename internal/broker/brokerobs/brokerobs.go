package brokerobs

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/trace"
	"options-signal-bot/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) GetAccount(ctx context.Context) (types.Account, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetAccount")
	defer span.End()

	acc, err := ob.broker.GetAccount(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch account", err)
		return acc, err
	}
	logger.DebugSkip(ctx, 1, "Account fetched", "buying_power", acc.BuyingPower, "equity", acc.Equity)
	return acc, nil
}

func (ob *observableBroker) GetPositions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetPositions")
	defer span.End()

	positions, err := ob.broker.GetPositions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(positions)))
	logger.DebugSkip(ctx, 1, "Positions fetched", "count", len(positions))
	return positions, nil
}

func (ob *observableBroker) GetOrders(ctx context.Context, status string) ([]types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetOrders")
	defer span.End()

	orders, err := ob.broker.GetOrders(ctx, status)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch orders", err, "status", status)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Orders fetched", "status", status, "count", len(orders))
	return orders, nil
}

func (ob *observableBroker) GetPortfolioHistory(ctx context.Context, period string) (types.PortfolioHistory, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetPortfolioHistory")
	defer span.End()

	h, err := ob.broker.GetPortfolioHistory(ctx, period)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch portfolio history", err, "period", period)
		return h, err
	}
	logger.DebugSkip(ctx, 1, "Portfolio history fetched", "period", period, "points", len(h.Equity))
	return h, nil
}

// Bar and quote failures are expected when the data feed is down; the
// cache layer recovers them, so they log at warn.
func (ob *observableBroker) GetStockBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.PriceBar, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetStockBars")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("limit", limit))

	logger.DebugSkip(ctx, 1, "Fetching bars", "symbol", symbol, "timeframe", timeframe, "limit", limit)

	bars, err := ob.broker.GetStockBars(ctx, symbol, timeframe, limit)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Failed to fetch bars", "symbol", symbol, "error", err)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Bars fetched successfully", "symbol", symbol, "count", len(bars))
	return bars, nil
}

func (ob *observableBroker) GetOptionChain(ctx context.Context, symbol string) ([]types.OptionContract, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetOptionChain")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	chain, err := ob.broker.GetOptionChain(ctx, symbol)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Failed to fetch option chain", "symbol", symbol, "error", err)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Option chain fetched", "symbol", symbol, "contracts", len(chain))
	return chain, nil
}

func (ob *observableBroker) GetOptionQuote(ctx context.Context, optionSymbol string) (types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetOptionQuote")
	defer span.End()

	q, err := ob.broker.GetOptionQuote(ctx, optionSymbol)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Failed to fetch option quote", "option_symbol", optionSymbol, "error", err)
		return q, err
	}
	logger.DebugSkip(ctx, 1, "Option quote fetched", "option_symbol", optionSymbol, "mid", q.Mid())
	return q, nil
}

func (ob *observableBroker) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetQuote")
	defer span.End()

	q, err := ob.broker.GetQuote(ctx, symbol)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Failed to fetch quote", "symbol", symbol, "error", err)
		return q, err
	}
	logger.DebugSkip(ctx, 1, "Quote fetched", "symbol", symbol, "bid", q.BidPx, "ask", q.AskPx)
	return q, nil
}

func (ob *observableBroker) PlaceOptionOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOptionOrder")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", req.Symbol), attribute.String("side", req.Side), attribute.Int("qty", req.Qty))

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"tag", req.Tag,
	)

	resp, err := ob.broker.PlaceOptionOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

func (ob *observableBroker) IsMarketOpen(ctx context.Context) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "broker.IsMarketOpen")
	defer span.End()

	open, err := ob.broker.IsMarketOpen(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to read market clock", err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("open", open))
	return open, nil
}
