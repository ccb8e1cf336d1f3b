package interfaces

import (
	"context"

	"options-signal-bot/internal/types"
)

type NewsClient interface {
	GetStockNews(ctx context.Context, symbol string, limit int) ([]types.Article, error)
	GetMarketNews(ctx context.Context, limit int) ([]types.Article, error)
}
