package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/tradelog"
	"options-signal-bot/internal/types"
)

// watchlist is the bot's fixed symbol list. It satisfies
// news.WatchlistLookup, so the scorer reads it without owning it.
type watchlist struct {
	symbols []string
	index   map[string]bool
}

func newWatchlist(symbols []string) watchlist {
	w := watchlist{index: make(map[string]bool, len(symbols))}
	for _, s := range symbols {
		if s == "" || w.index[s] {
			continue
		}
		w.index[s] = true
		w.symbols = append(w.symbols, s)
	}
	return w
}

func (w watchlist) Symbols() []string {
	return append([]string(nil), w.symbols...)
}

func (w watchlist) Contains(symbol string) bool { return w.index[symbol] }

// recoverSymbol converts a panic inside one symbol's work into an error.
func recoverSymbol(ctx context.Context, symbol string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: unexpected panic: %v", symbol, r)
		logger.Error(ctx, "Recovered panic", "symbol", symbol, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	}
}

// recordError keeps the message for today's daily report.
func (b *Bot) recordError(msg string) {
	day := b.today()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errDay != day {
		b.errDay, b.dayErrors = day, nil
	}
	b.dayErrors = append(b.dayErrors, msg)
}

func (b *Bot) errorsToday() []string {
	day := b.today()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errDay != day {
		return nil
	}
	return append([]string(nil), b.dayErrors...)
}

func (b *Bot) today() string {
	return b.now().In(b.cfg.Location()).Format("2006-01-02")
}

func (b *Bot) journalDecision(ctx context.Context, op types.Opportunity, snap types.Snapshot) {
	logger.Decision(ctx, op.Symbol, op.Action, op.Confidence, Reason(op),
		"option_type", op.OptionType,
		"combined_score", op.CombinedScore,
		"news_sentiment", op.News.Sentiment,
		"news_real", op.News.IsRealData,
		"price_source", op.PriceSource,
		"real_data", op.IsRealData,
		"trending", op.Trending,
	)
	if b.journal == nil {
		return
	}
	err := b.journal.AppendDecision(tradelog.DecisionEntry{
		Symbol:        op.Symbol,
		Action:        op.Action,
		OptionType:    op.OptionType,
		Confidence:    op.Confidence,
		CombinedScore: op.CombinedScore,
		Price:         op.Price,
		Scores: map[string]float64{
			"technical": op.Scores.Technical,
			"news":      op.Scores.News,
			"trending":  op.Scores.Trending,
		},
		Indicators:  indicatorMap(snap),
		Reason:      Reason(op),
		PriceSource: op.PriceSource,
		IsRealData:  op.IsRealData,
	})
	if err != nil {
		logger.Warn(ctx, "Failed to journal decision", "symbol", op.Symbol, "error", err)
	}
}

func (b *Bot) journalTrade(ctx context.Context, e tradelog.Entry) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Append(e); err != nil {
		logger.Warn(ctx, "Failed to journal trade", "symbol", e.Symbol, "order_id", e.OrderID, "error", err)
	}
}

func indicatorMap(s types.Snapshot) map[string]float64 {
	return map[string]float64{
		"RSI":      s.RSI,
		"SMA20":    s.SMA20,
		"SMA50":    s.SMA50,
		"MACD":     s.MACD.Value,
		"MACD_SIG": s.MACD.Signal,
		"BB_UP":    s.Bollinger.Upper,
		"BB_MID":   s.Bollinger.Middle,
		"BB_LOW":   s.Bollinger.Lower,
		"STOCH_K":  s.Stochastic.K,
		"STOCH_D":  s.Stochastic.D,
	}
}

// alertCtx bounds an alert so a slow channel cannot stall the cycle.
func alertCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
}
