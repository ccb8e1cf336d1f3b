package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/trend"
	"options-signal-bot/internal/types"
)

// GetWatchlist returns one row per watchlist symbol. A symbol whose quote or
// news cannot be fetched gets a zeroed row.
func (b *Bot) GetWatchlist(ctx context.Context) ([]types.WatchlistItem, error) {
	symbols := b.watchlist.Symbols()
	rows := make([]types.WatchlistItem, len(symbols))

	var g errgroup.Group
	g.SetLimit(b.concurrency())
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			rows[i] = types.WatchlistItem{Symbol: sym}
			q, err := b.broker.GetQuote(ctx, sym)
			if err != nil {
				logger.Warn(ctx, "Watchlist quote failed", "symbol", sym, "error", err)
				return nil
			}
			articles, err := b.news.StockNews(ctx, sym, 2)
			if err != nil {
				logger.Warn(ctx, "Watchlist news failed", "symbol", sym, "error", err)
				return nil
			}

			row := types.WatchlistItem{
				Symbol:     sym,
				Price:      q.BidPx,
				Volume:     q.BidSize,
				IsTrending: b.trending.Contains(sym),
			}
			if row.Price == 0 {
				row.Price = q.Mid()
			}
			if q.AskPx > 0 && q.BidPx > 0 {
				row.Change = (q.BidPx - q.AskPx) / q.AskPx * 100
			}
			if len(articles) > 0 {
				a := articles[0].Article
				row.News = &a
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()
	return rows, nil
}

// GetTrendingStocks describes each trending symbol from its last two daily
// bars, sorted by volume ratio descending. Symbols without bars are omitted.
func (b *Bot) GetTrendingStocks(ctx context.Context) ([]types.TrendingItem, error) {
	symbols := b.trending.Symbols()
	items := make([]*types.TrendingItem, len(symbols))

	var g errgroup.Group
	g.SetLimit(b.concurrency())
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			bars, err := b.broker.GetStockBars(ctx, sym, "1Day", 2)
			if err != nil {
				logger.Warn(ctx, "Trending bars failed", "symbol", sym, "error", err)
				return nil
			}
			m, ok := trend.Short(bars, b.thresholds)
			if !ok {
				return nil
			}
			latest := bars[len(bars)-1]
			item := &types.TrendingItem{
				Symbol:      sym,
				Price:       latest.Close,
				PriceChange: m.PriceChange * 100,
				Volume:      latest.Volume,
				VolumeRatio: m.VolumeRatio,
				Reason:      trend.Reason(m.PriceChange),
			}
			if chain, err := b.broker.GetOptionChain(ctx, sym); err != nil {
				logger.Debug(ctx, "Trending option chain failed", "symbol", sym, "error", err)
			} else {
				item.OptionsCount = len(chain)
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.TrendingItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, *it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VolumeRatio > out[j].VolumeRatio })
	return out, nil
}

// CalculatePerformance reads equity and the 1D history from the broker. If
// the account is unreachable it returns zeroed broker figures together with
// the error; the bot's own counters are always filled in.
func (b *Bot) CalculatePerformance(ctx context.Context) (types.Performance, error) {
	perf := types.Performance{
		TotalTrades: b.TotalTrades(),
		RealizedPL:  b.pm.realizedPL(),
		OpenTrades:  b.pm.openCount(),
	}

	acct, err := b.broker.GetAccount(ctx)
	if err != nil {
		logger.Warn(ctx, "Performance unavailable", "error", err)
		return perf, err
	}
	perf.TotalEquity = acct.Equity
	perf.BuyingPower = acct.BuyingPower

	hist, err := b.broker.GetPortfolioHistory(ctx, "1D")
	if err != nil {
		logger.Warn(ctx, "Portfolio history unavailable, keeping last day change", "error", err)
	}

	b.mu.Lock()
	if n := len(hist.Equity); err == nil && n > 1 {
		b.dayChange = hist.Equity[n-1] - hist.Equity[n-2]
	}
	perf.DayChange = b.dayChange
	b.mu.Unlock()
	return perf, nil
}

// reportHeadlines is how many market headlines the daily report carries.
const reportHeadlines = 5

// SendDailyReport sends performance with the top market headlines, the
// trades opened or closed today and today's errors.
func (b *Bot) SendDailyReport(ctx context.Context) error {
	perf, err := b.CalculatePerformance(ctx)
	errs := b.errorsToday()
	if err != nil {
		errs = append(errs, "performance: "+err.Error())
	}
	if heads, herr := b.news.Headlines(ctx, reportHeadlines); herr != nil {
		logger.Warn(ctx, "Market headlines unavailable for the report", "error", herr)
	} else {
		perf.MarketHeadlines = heads
	}

	day := b.today()
	loc := b.cfg.Location()
	var trades []types.ActiveTrade
	for _, t := range b.pm.all() {
		opened := t.EntryDate.In(loc).Format("2006-01-02") == day
		closed := !t.ClosedAt.IsZero() && t.ClosedAt.In(loc).Format("2006-01-02") == day
		if opened || closed {
			trades = append(trades, t)
		}
	}

	logger.Info(ctx, "Sending daily report", "trades", len(trades), "errors", len(errs), "equity", perf.TotalEquity)
	return b.alerter.SendDailyReport(ctx, perf, trades, errs)
}
