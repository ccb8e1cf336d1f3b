package interfaces

import (
	"context"

	"options-signal-bot/internal/types"
)

// Broker is the brokerage account of record plus its market-data endpoints.
type Broker interface {
	GetAccount(ctx context.Context) (types.Account, error)
	GetPositions(ctx context.Context) ([]types.Position, error)
	GetOrders(ctx context.Context, status string) ([]types.Order, error)
	GetPortfolioHistory(ctx context.Context, period string) (types.PortfolioHistory, error)
	GetStockBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.PriceBar, error)
	GetOptionChain(ctx context.Context, symbol string) ([]types.OptionContract, error)
	GetOptionQuote(ctx context.Context, optionSymbol string) (types.Quote, error)
	PlaceOptionOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)
	IsMarketOpen(ctx context.Context) (bool, error)
}
