package news

import (
	"context"
	"errors"
	"fmt"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

var _ interfaces.NewsClient = (*Chain)(nil)

// NamedClient labels a source for logs.
type NamedClient struct {
	Name   string
	Client interfaces.NewsClient
}

// Chain asks each source in order and returns the first non-empty answer.
// An empty answer from a healthy source is returned when nothing better exists.
type Chain struct {
	sources []NamedClient
}

func NewChain(sources ...NamedClient) *Chain {
	return &Chain{sources: sources}
}

func (c *Chain) GetStockNews(ctx context.Context, symbol string, limit int) ([]types.Article, error) {
	return c.first(ctx, func(n interfaces.NewsClient) ([]types.Article, error) {
		return n.GetStockNews(ctx, symbol, limit)
	})
}

func (c *Chain) GetMarketNews(ctx context.Context, limit int) ([]types.Article, error) {
	return c.first(ctx, func(n interfaces.NewsClient) ([]types.Article, error) {
		return n.GetMarketNews(ctx, limit)
	})
}

func (c *Chain) first(ctx context.Context, call func(interfaces.NewsClient) ([]types.Article, error)) ([]types.Article, error) {
	if len(c.sources) == 0 {
		return nil, errors.New("no news sources configured")
	}
	var errs []error
	var empty []types.Article
	healthy := false
	for _, src := range c.sources {
		articles, err := call(src.Client)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug(ctx, "News source failed", "source", src.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		if len(articles) > 0 {
			return articles, nil
		}
		healthy = true
		empty = articles
	}
	if healthy {
		return empty, nil
	}
	return nil, errors.Join(errs...)
}
