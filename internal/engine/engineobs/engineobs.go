package engineobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/trace"
	"options-signal-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Initialize(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "engine.Initialize")
	defer span.End()

	start := time.Now()
	if err := oe.engine.Initialize(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Engine initialization failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
	logger.InfoSkip(ctx, 1, "Engine initialized", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (oe *observableEngine) Start(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "engine.Start")
	defer span.End()

	if err := oe.engine.Start(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Engine start failed", err)
		return err
	}
	return nil
}

func (oe *observableEngine) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "engine.Stop")
	defer span.End()
	oe.engine.Stop(ctx)
}

func (oe *observableEngine) ExecuteTradingStrategy(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.ExecuteTradingStrategy")
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Starting trading cycle")

	res, err := oe.engine.ExecuteTradingStrategy(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("cycle_id", res.CycleID),
		attribute.String("skipped", res.Skipped),
		attribute.Int("analyzed", res.Analyzed),
		attribute.Int("opportunities", len(res.Opportunities)),
		attribute.Int("executed", len(res.Executed)),
		attribute.Int("errors", len(res.Errors)),
	)
	if res.Skipped != "" {
		logger.DebugSkip(ctx, 1, "Trading cycle skipped",
			"cycle_id", res.CycleID,
			"reason", res.Skipped,
		)
		return res, nil
	}
	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"cycle_id", res.CycleID,
		"analyzed", res.Analyzed,
		"opportunities", len(res.Opportunities),
		"executed", len(res.Executed),
		"closed", len(res.Closed),
		"errors", len(res.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (oe *observableEngine) GetWatchlist(ctx context.Context) ([]types.WatchlistItem, error) {
	ctx, span := trace.StartSpan(ctx, "engine.GetWatchlist")
	defer span.End()

	rows, err := oe.engine.GetWatchlist(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Watchlist failed", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("symbols", len(rows)))
	return rows, nil
}

func (oe *observableEngine) GetTrendingStocks(ctx context.Context) ([]types.TrendingItem, error) {
	ctx, span := trace.StartSpan(ctx, "engine.GetTrendingStocks")
	defer span.End()

	items, err := oe.engine.GetTrendingStocks(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trending stocks failed", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("trending", len(items)))
	return items, nil
}

func (oe *observableEngine) CalculatePerformance(ctx context.Context) (types.Performance, error) {
	ctx, span := trace.StartSpan(ctx, "engine.CalculatePerformance")
	defer span.End()

	perf, err := oe.engine.CalculatePerformance(ctx)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Performance degraded", "error", err)
		return perf, err
	}
	span.SetAttributes(
		attribute.Float64("equity", perf.TotalEquity),
		attribute.Float64("day_change", perf.DayChange),
	)
	return perf, nil
}

func (oe *observableEngine) SendDailyReport(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "engine.SendDailyReport")
	defer span.End()

	if err := oe.engine.SendDailyReport(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Daily report failed", err)
		return err
	}
	logger.InfoSkip(ctx, 1, "Daily report sent")
	return nil
}

func (oe *observableEngine) IsRunning() bool     { return oe.engine.IsRunning() }
func (oe *observableEngine) TotalTrades() int    { return oe.engine.TotalTrades() }
func (oe *observableEngine) ProfitLoss() float64 { return oe.engine.ProfitLoss() }
