package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"options-signal-bot/internal/store"
	"options-signal-bot/internal/types"
)

var testNow = time.Date(2026, 10, 14, 14, 30, 0, 0, time.UTC)

type fakeBroker struct {
	mu sync.Mutex

	account     types.Account
	accountErr  error
	positions   []types.Position
	bars        map[string][]types.PriceBar
	barsErr     error
	chains      map[string][]types.OptionContract
	quotes      map[string]types.Quote
	quoteErr    error
	optQuotes   map[string]types.Quote
	optQuoteErr error
	orderErr    error
	open        bool
	clockErr    error
	history     types.PortfolioHistory

	orders   []types.OrderReq
	barCalls int
	nextID   int
}

func (f *fakeBroker) GetAccount(ctx context.Context) (types.Account, error) {
	return f.account, f.accountErr
}

func (f *fakeBroker) GetPositions(ctx context.Context) ([]types.Position, error) {
	return f.positions, nil
}

func (f *fakeBroker) GetOrders(ctx context.Context, status string) ([]types.Order, error) {
	return nil, nil
}

func (f *fakeBroker) GetPortfolioHistory(ctx context.Context, period string) (types.PortfolioHistory, error) {
	return f.history, nil
}

func (f *fakeBroker) GetStockBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.PriceBar, error) {
	f.mu.Lock()
	f.barCalls++
	f.mu.Unlock()
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (f *fakeBroker) GetOptionChain(ctx context.Context, symbol string) ([]types.OptionContract, error) {
	return f.chains[symbol], nil
}

func (f *fakeBroker) GetOptionQuote(ctx context.Context, optionSymbol string) (types.Quote, error) {
	if f.optQuoteErr != nil {
		return types.Quote{}, f.optQuoteErr
	}
	q, ok := f.optQuotes[optionSymbol]
	if !ok {
		return types.Quote{}, errors.New("no option quote")
	}
	return q, nil
}

func (f *fakeBroker) PlaceOptionOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return types.OrderResp{}, f.orderErr
	}
	f.orders = append(f.orders, req)
	f.nextID++
	return types.OrderResp{OrderID: fmt.Sprintf("ord-%d", f.nextID), Status: "accepted"}, nil
}

func (f *fakeBroker) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	if f.quoteErr != nil {
		return types.Quote{}, f.quoteErr
	}
	return f.quotes[symbol], nil
}

func (f *fakeBroker) IsMarketOpen(ctx context.Context) (bool, error) {
	return f.open, f.clockErr
}

type fakeNews struct {
	market   []types.Article
	articles map[string][]types.Article
	errs     map[string]error
	err      error
}

func (f *fakeNews) GetStockNews(ctx context.Context, symbol string, limit int) ([]types.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.articles[symbol], nil
}

func (f *fakeNews) GetMarketNews(ctx context.Context, limit int) ([]types.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.market) > limit {
		return f.market[:limit], nil
	}
	return f.market, nil
}

type sentAlert struct {
	subject, message string
	details          *types.TradeDetails
	cause            error
}

type fakeAlerter struct {
	mu         sync.Mutex
	trading    []sentAlert
	emergency  []sentAlert
	reports    int
	lastPerf   types.Performance
	lastErrs   []string
	lastTrades []types.ActiveTrade
	onTrade    func()
}

func (f *fakeAlerter) SendTradingAlert(ctx context.Context, subject, message string, details *types.TradeDetails) error {
	f.mu.Lock()
	f.trading = append(f.trading, sentAlert{subject: subject, message: message, details: details})
	hook := f.onTrade
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (f *fakeAlerter) SendEmergencyAlert(ctx context.Context, subject, message string, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emergency = append(f.emergency, sentAlert{subject: subject, message: message, cause: cause})
	return nil
}

func (f *fakeAlerter) SendDailyReport(ctx context.Context, perf types.Performance, trades []types.ActiveTrade, errs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	f.lastPerf, f.lastTrades, f.lastErrs = perf, trades, errs
	return nil
}

// risingBars is 60 daily bars with an accelerating rise, strong enough for a
// strength-100 buy signal. dir -1 mirrors it.
func risingBars(dir, base float64) []types.PriceBar {
	start := testNow.AddDate(0, 0, -60)
	bars := make([]types.PriceBar, 60)
	for i := range bars {
		x := float64(i) / 59
		c := base * (1 + dir*0.11*x*x)
		if i%3 == 2 {
			c -= dir * base * 0.006
		} else {
			c += dir * base * 0.003
		}
		bars[i] = types.PriceBar{
			Ts: start.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1_000_000,
		}
	}
	return bars
}

var testExpiry = time.Date(2027, 6, 18, 0, 0, 0, 0, time.UTC)

// atmChain lists calls and puts around strike on the target expiry and one
// far expiry.
func atmChain(symbol string, strike, last float64) []types.OptionContract {
	var out []types.OptionContract
	for _, exp := range []time.Time{testExpiry, testExpiry.AddDate(0, 3, 0)} {
		for _, typ := range []string{"call", "put"} {
			for _, k := range []float64{strike - 10, strike, strike + 10} {
				out = append(out, types.OptionContract{
					Symbol:     fmt.Sprintf("%s%s%s%08.0f", symbol, exp.Format("060102"), strings.ToUpper(typ[:1]), k*1000),
					Underlying: symbol,
					Type:       typ,
					Strike:     k,
					Expiration: exp,
					LastPrice:  last,
				})
			}
		}
	}
	return out
}

func testConfig(symbols ...string) *store.Config {
	cfg := store.Default()
	cfg.Watchlist.Default = symbols
	cfg.Schedule.Timezone = "UTC"
	return cfg
}

func newTestBot(cfg *store.Config, brk *fakeBroker, nc *fakeNews, al *fakeAlerter) *Bot {
	if nc == nil {
		nc = &fakeNews{}
	}
	return startedBot(New(cfg, Deps{Broker: brk, News: nc, Alerter: al}))
}

func startedBot(b *Bot) *Bot {
	b.now = func() time.Time { return testNow }
	b.running.Store(true)
	b.initialized.Store(true)
	return b
}
