package interfaces

import (
	"context"

	"options-signal-bot/internal/types"
)

// Engine is what the scheduler and CLI drive.
type Engine interface {
	Initialize(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	ExecuteTradingStrategy(ctx context.Context) (*types.CycleResult, error)
	GetWatchlist(ctx context.Context) ([]types.WatchlistItem, error)
	GetTrendingStocks(ctx context.Context) ([]types.TrendingItem, error)
	CalculatePerformance(ctx context.Context) (types.Performance, error)
	SendDailyReport(ctx context.Context) error

	IsRunning() bool
	TotalTrades() int
	ProfitLoss() float64
}
