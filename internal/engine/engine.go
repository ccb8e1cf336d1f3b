package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"options-signal-bot/internal/alert"
	"options-signal-bot/internal/analysis"
	"options-signal-bot/internal/cache"
	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/news"
	"options-signal-bot/internal/store"
	"options-signal-bot/internal/trace"
	"options-signal-bot/internal/tradelog"
	"options-signal-bot/internal/trend"
	"options-signal-bot/internal/types"
)

const (
	// historyBars is how many daily bars one analysis fetches.
	historyBars = 100
	// shortTrendBars is enough for the short-form trending check.
	shortTrendBars = 5
	newsCacheKey   = "watchlistNews"
	alertTimeout   = 10 * time.Second
)

// Deps are the collaborators a Bot drives. Journal and Generator are
// optional; without a Generator there is no synthetic fallback.
type Deps struct {
	Broker    interfaces.Broker
	News      interfaces.NewsClient
	Alerter   interfaces.Alerter
	Journal   *tradelog.Journal
	Generator *cache.Generator
}

// Bot runs the strategy cycle over one watchlist. All cycle state lives on
// the Bot; cycles are serialized by inCycle.
type Bot struct {
	cfg     *store.Config
	broker  interfaces.Broker
	alerter interfaces.Alerter
	journal *tradelog.Journal
	gen     *cache.Generator
	news    *news.Service

	watchlist  watchlist
	trending   *trend.Set
	thresholds trend.Thresholds
	eval       Evaluator
	exec       *orderExecutor
	pm         *positionManager

	prices    *cache.Store[[]types.PriceBar]
	newsCache *cache.Store[map[string]types.NewsImpact]

	running     atomic.Bool
	inCycle     atomic.Bool
	initialized atomic.Bool
	totalTrades atomic.Int64

	mu        sync.Mutex
	errDay    string
	dayErrors []string
	dayChange float64

	now func() time.Time
}

var _ interfaces.Engine = (*Bot)(nil)

func newBot(cfg *store.Config, d Deps) *Bot {
	if cfg == nil {
		cfg = store.Default()
	}
	alerter := d.Alerter
	if alerter == nil {
		alerter = alert.Log{}
	}

	b := &Bot{
		cfg:       cfg,
		broker:    d.Broker,
		alerter:   alerter,
		journal:   d.Journal,
		gen:       d.Generator,
		watchlist: newWatchlist(cfg.Watchlist.Default),
		trending:  trend.NewSet(),
		thresholds: trend.Thresholds{
			VolumeRatio:    cfg.Trend.VolumeThreshold,
			ShortPriceMove: cfg.Trend.ShortPriceMove,
			FullPriceMove:  cfg.Trend.FullPriceMove,
		},
		eval: NewEvaluator(EvalParams{
			EntryThreshold:   cfg.Trading.EntryThreshold,
			NewsWeight:       0.3,
			TrendingBonus:    0.2,
			MinConfidence:    cfg.Trading.MinConfidence,
			MaxOpportunities: cfg.Trading.MaxOpportunities,
		}),
		pm:        newPositionManager(),
		prices:    cache.NewStore[[]types.PriceBar](cfg.Cache.TTL),
		newsCache: cache.NewStore[map[string]types.NewsImpact](cfg.Cache.TTL),
		now:       time.Now,
	}
	b.exec = &orderExecutor{
		broker:       d.Broker,
		risk:         newRiskManager(cfg.Trading.RiskPercentage, cfg.Trading.MaxContracts, cfg.Trading.PremiumEstimatePct, cfg.Trading.ProfitTarget),
		expiryMonths: cfg.Trading.OptionExpiryMonths,
		atmTolerance: cfg.Trading.ATMTolerance,
		now:          func() time.Time { return b.now() },
	}
	b.news = news.NewService(d.News, news.NewScorer(b.watchlist), news.ServiceConfig{
		Concurrency: cfg.Network.Concurrency,
		Timeout:     cfg.Network.RequestTimeout,
		Source:      "alpaca",
	})
	return b
}

// Initialize checks the account, loads positions and runs the short-form
// trending pass. Only an unreachable account is fatal.
func (b *Bot) Initialize(ctx context.Context) error {
	acct, err := b.broker.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("initialize: fetch account: %w", err)
	}
	logger.Info(ctx, "Account loaded",
		"account_id", acct.ID,
		"status", acct.Status,
		"buying_power", acct.BuyingPower,
		"equity", acct.Equity,
		"mode", b.cfg.Mode,
	)

	b.refreshPositions(ctx)
	b.detectTrendingShort(ctx)
	b.initialized.Store(true)

	logger.Info(ctx, "Trading bot initialized",
		"watchlist", len(b.watchlist.Symbols()),
		"trending", b.trending.Symbols(),
		"positions", b.pm.positionCount(),
	)
	return nil
}

func (b *Bot) Start(ctx context.Context) error {
	if !b.initialized.Load() {
		if err := b.Initialize(ctx); err != nil {
			return err
		}
	}
	b.running.Store(true)
	logger.Info(ctx, "Trading bot started")
	return nil
}

// Stop prevents new cycles. An in-flight cycle stops at the next symbol
// boundary; an order already being placed is allowed to finish.
func (b *Bot) Stop(ctx context.Context) {
	b.running.Store(false)
	logger.Info(ctx, "Trading bot stopped", "cycle_in_progress", b.inCycle.Load())
}

func (b *Bot) IsRunning() bool { return b.running.Load() }

func (b *Bot) TotalTrades() int { return int(b.totalTrades.Load()) }

// ProfitLoss is the day change from the last performance calculation.
func (b *Bot) ProfitLoss() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dayChange
}

// ActiveTrades returns copies of the open trades.
func (b *Bot) ActiveTrades() []types.ActiveTrade {
	return b.pm.active()
}

// ExecuteTradingStrategy runs one cycle: monitor open trades, analyze the
// watchlist, score news, rank opportunities and act on them. It is a no-op
// when the bot is not running or the market is closed.
func (b *Bot) ExecuteTradingStrategy(ctx context.Context) (*types.CycleResult, error) {
	res := &types.CycleResult{CycleID: uuid.NewString()}
	if !b.running.Load() {
		res.Skipped = "not running"
		return res, nil
	}
	if !b.inCycle.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer b.inCycle.Store(false)

	ctx, span := trace.StartSpan(ctx, "strategy.cycle")
	defer span.End()
	span.SetAttributes(attribute.String("cycle_id", res.CycleID))

	open, err := b.broker.IsMarketOpen(ctx)
	if err != nil {
		logger.Warn(ctx, "Market clock unavailable, skipping cycle", "cycle_id", res.CycleID, "error", err)
		b.recordError(fmt.Sprintf("market clock: %v", err))
		res.Skipped = "market clock unavailable"
		return res, nil
	}
	if !open {
		logger.Debug(ctx, "Market closed, skipping cycle", "cycle_id", res.CycleID)
		res.Skipped = "market closed"
		return res, nil
	}

	logger.Info(ctx, "Executing trading strategy", "cycle_id", res.CycleID, "watchlist", len(b.watchlist.Symbols()))

	if n := b.prices.Purge() + b.newsCache.Purge(); n > 0 {
		logger.Debug(ctx, "Expired cache entries purged", "entries", n)
	}
	b.refreshPositions(ctx)
	b.monitorTrades(ctx, res)

	symbols := b.watchlist.Symbols()
	analyses, priceSource := b.analyzeWatchlist(ctx, symbols, res)
	res.Analyzed = len(analyses)
	res.PriceSource = string(priceSource)

	impacts, newsSource := b.fetchNews(ctx, symbols)
	res.NewsSource = string(newsSource)

	trendingNow := make([]string, 0, len(analyses))
	for _, a := range analyses {
		if a.trending {
			trendingNow = append(trendingNow, a.symbol)
		}
	}
	b.trending.Replace(trendingNow)

	ops := make([]types.Opportunity, 0, len(analyses))
	chains := make(map[string][]types.OptionContract, len(analyses))
	for _, a := range analyses {
		impact, ok := impacts[a.symbol]
		if !ok {
			impact = types.NewsImpact{Symbol: a.symbol, Sentiment: types.Neutral, IsRealData: newsSource != cache.SourceSynthetic}
		}
		op := b.eval.Evaluate(a.symbol, a.result.Snapshot.Price, a.result.Signal, impact, a.trending, b.pm.exposure(a.symbol))
		op.PriceSource = string(a.source)
		op.IsRealData = a.source != cache.SourceSynthetic && impact.IsRealData
		b.journalDecision(ctx, op, a.result.Snapshot)
		ops = append(ops, op)
		chains[a.symbol] = a.chain
	}

	res.Opportunities = b.eval.Rank(ops)
	for _, op := range res.Opportunities {
		if !b.running.Load() {
			logger.Info(ctx, "Stop requested, abandoning remaining opportunities", "cycle_id", res.CycleID)
			break
		}
		b.act(ctx, op, chains[op.Symbol], res)
	}

	logger.Info(ctx, "Trading strategy completed",
		"cycle_id", res.CycleID,
		"analyzed", res.Analyzed,
		"opportunities", len(res.Opportunities),
		"executed", len(res.Executed),
		"closed", len(res.Closed),
		"errors", len(res.Errors),
		"price_source", res.PriceSource,
		"news_source", res.NewsSource,
	)
	return res, nil
}

// symbolAnalysis is one analyzed watchlist member.
type symbolAnalysis struct {
	symbol   string
	result   *analysis.Result
	chain    []types.OptionContract
	trending bool
	source   cache.Source
}

// analyzeWatchlist analyzes symbols with bounded concurrency. Failed and
// skipped symbols are left out; the returned source is the most degraded
// price source seen.
func (b *Bot) analyzeWatchlist(ctx context.Context, symbols []string, res *types.CycleResult) ([]*symbolAnalysis, cache.Source) {
	results := make([]*symbolAnalysis, len(symbols))
	var errMu sync.Mutex

	var g errgroup.Group
	g.SetLimit(b.concurrency())
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if !b.running.Load() || ctx.Err() != nil {
				return nil
			}
			a, err := b.analyzeSymbol(ctx, sym)
			if err != nil {
				if !errors.Is(err, analysis.ErrInsufficientData) {
					errMu.Lock()
					res.Errors = append(res.Errors, err.Error())
					errMu.Unlock()
					b.recordError(err.Error())
				}
				return nil
			}
			results[i] = a
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*symbolAnalysis, 0, len(results))
	source := cache.SourceLive
	for _, a := range results {
		if a == nil {
			continue
		}
		out = append(out, a)
		source = worse(source, a.source)
	}
	return out, source
}

// analyzeSymbol fetches bars and the option chain for one symbol. A symbol
// without listed options returns nil and no error.
func (b *Bot) analyzeSymbol(ctx context.Context, symbol string) (a *symbolAnalysis, err error) {
	ctx, span := trace.StartSpan(ctx, "strategy.symbol")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))
	defer recoverSymbol(ctx, symbol, &err)

	bars, err := b.fetchBars(ctx, symbol)
	if err != nil {
		logger.Warn(ctx, "Price data unavailable, skipping symbol", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("%s: price data: %w", symbol, err)
	}

	result, err := analysis.Analyze(symbol, bars.Data)
	if err != nil {
		logger.Warn(ctx, "Skipping symbol", "symbol", symbol, "source", string(bars.Source), "error", err)
		return nil, err
	}

	chain, err := b.broker.GetOptionChain(ctx, symbol)
	if err != nil {
		logger.Warn(ctx, "Option chain unavailable, skipping symbol", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("%s: option chain: %w", symbol, err)
	}
	if len(chain) == 0 {
		logger.Debug(ctx, "No options available", "symbol", symbol)
		return nil, nil
	}

	m, _ := trend.Full(bars.Data, b.thresholds)
	logger.Debug(ctx, "Symbol analyzed",
		"symbol", symbol,
		"source", string(bars.Source),
		"strength", result.Signal.Strength,
		"recommendation", result.Signal.Recommendation,
		"rsi", result.Snapshot.RSI,
		"volume_ratio", m.VolumeRatio,
		"trending", m.Trending,
		"contracts", len(chain),
	)
	return &symbolAnalysis{
		symbol:   symbol,
		result:   result,
		chain:    chain,
		trending: m.Trending,
		source:   bars.Source,
	}, nil
}

func (b *Bot) fetchBars(ctx context.Context, symbol string) (cache.Result[[]types.PriceBar], error) {
	f := cache.Fetcher[[]types.PriceBar]{
		Live: func(ctx context.Context) ([]types.PriceBar, error) {
			return b.broker.GetStockBars(ctx, symbol, "1Day", historyBars)
		},
		Accept: func(bars []types.PriceBar) error {
			if len(bars) < analysis.MinBars {
				return fmt.Errorf("%w: have %d bars, need %d", analysis.ErrInsufficientData, len(bars), analysis.MinBars)
			}
			return nil
		},
		Timeout: b.cfg.Network.RequestTimeout,
	}
	if b.gen != nil {
		f.Synthetic = func() []types.PriceBar { return b.gen.Bars(symbol, historyBars) }
	}
	return cache.Fetch(ctx, b.prices, symbol, f)
}

// fetchNews scores the watchlist's news with cache and synthetic fallback.
// With no fallback available every symbol is treated as neutral.
func (b *Bot) fetchNews(ctx context.Context, symbols []string) (map[string]types.NewsImpact, cache.Source) {
	f := cache.Fetcher[map[string]types.NewsImpact]{
		Live: func(ctx context.Context) (map[string]types.NewsImpact, error) {
			return b.news.Impact(ctx, symbols)
		},
		CacheSynthetic: true,
	}
	if b.gen != nil {
		f.Synthetic = func() map[string]types.NewsImpact { return b.gen.NewsImpact(symbols) }
	}
	r, err := cache.Fetch(ctx, b.newsCache, newsCacheKey, f)
	if err != nil {
		logger.Warn(ctx, "News unavailable, treating watchlist as neutral", "error", err)
		b.recordError(fmt.Sprintf("news: %v", err))
		return map[string]types.NewsImpact{}, cache.SourceSynthetic
	}
	if r.LiveErr != nil {
		b.recordError(fmt.Sprintf("news: %v", r.LiveErr))
	}
	return r.Data, r.Source
}

// detectTrendingShort runs the short-form trending check over the watchlist
// and replaces the trending set with the result.
func (b *Bot) detectTrendingShort(ctx context.Context) {
	symbols := b.watchlist.Symbols()
	flags := make([]bool, len(symbols))

	var g errgroup.Group
	g.SetLimit(b.concurrency())
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			bars, err := b.broker.GetStockBars(ctx, sym, "1Day", shortTrendBars)
			if err != nil {
				logger.Debug(ctx, "Trend check skipped", "symbol", sym, "error", err)
				return nil
			}
			if m, ok := trend.Short(bars, b.thresholds); ok {
				flags[i] = m.Trending
			}
			return nil
		})
	}
	_ = g.Wait()

	var trending []string
	for i, sym := range symbols {
		if flags[i] {
			trending = append(trending, sym)
		}
	}
	b.trending.Replace(trending)
}

func (b *Bot) refreshPositions(ctx context.Context) {
	ps, err := b.broker.GetPositions(ctx)
	if err != nil {
		logger.Warn(ctx, "Positions unavailable, keeping previous snapshot", "error", err)
		return
	}
	b.pm.replacePositions(ps)
}

func (b *Bot) concurrency() int {
	if b.cfg.Network.Concurrency > 0 {
		return b.cfg.Network.Concurrency
	}
	return 4
}

// worse orders sources live < cache < synthetic.
func worse(a, b cache.Source) cache.Source {
	rank := map[cache.Source]int{cache.SourceLive: 0, cache.SourceCache: 1, cache.SourceSynthetic: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
