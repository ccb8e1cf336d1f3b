package news

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

type ServiceConfig struct {
	// Concurrency bounds in-flight symbol fetches. Zero means 4.
	Concurrency int
	// Timeout bounds each symbol fetch. Zero means the caller's context only.
	Timeout time.Duration
	// Source names the upstream in the resulting impacts.
	Source string
}

// Service turns raw headlines into per-symbol impacts.
type Service struct {
	client interfaces.NewsClient
	scorer *Scorer
	cfg    ServiceConfig
}

func NewService(client interfaces.NewsClient, scorer *Scorer, cfg ServiceConfig) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Source == "" {
		cfg.Source = "alpaca"
	}
	return &Service{client: client, scorer: scorer, cfg: cfg}
}

// Impact fetches and scores headlines for every symbol concurrently. A
// symbol whose fetch fails is left out of the map; the call fails only when
// every symbol fails.
func (s *Service) Impact(ctx context.Context, symbols []string) (map[string]types.NewsImpact, error) {
	out := make(map[string]types.NewsImpact, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			callCtx := gctx
			if s.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, s.cfg.Timeout)
				defer cancel()
			}
			articles, err := s.client.GetStockNews(callCtx, sym, ArticlesPerSymbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
				return nil
			}
			out[sym] = BuildImpact(sym, s.scorer.Score(articles), s.cfg.Source)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("news unavailable for all %d symbols: %w", len(symbols), errors.Join(errs...))
	}
	if len(errs) > 0 {
		logger.Warn(ctx, "News partially unavailable", "failed", len(errs), "symbols", len(symbols))
	}
	return out, nil
}

// Headlines scores market-wide news, used for reports and the watchlist view.
func (s *Service) Headlines(ctx context.Context, limit int) ([]types.ScoredArticle, error) {
	articles, err := s.client.GetMarketNews(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.scorer.Score(articles), nil
}

// StockNews returns scored headlines for a single symbol.
func (s *Service) StockNews(ctx context.Context, symbol string, limit int) ([]types.ScoredArticle, error) {
	articles, err := s.client.GetStockNews(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	return s.scorer.Score(articles), nil
}
