package alpaca

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"options-signal-bot/internal/types"
)

// GetStockBars returns up to limit bars, oldest first.
func (a *Alpaca) GetStockBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.PriceBar, error) {
	if timeframe == "" {
		timeframe = "1Day"
	}
	q := url.Values{}
	q.Set("timeframe", timeframe)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("adjustment", "raw")
	q.Set("feed", "iex")
	if timeframe == "1Day" {
		// weekends and holidays: ask for enough calendar days to cover limit sessions
		q.Set("start", a.now().AddDate(0, 0, -(limit*7/5+10)).Format("2006-01-02"))
	}

	var body struct {
		Bars []barJSON `json:"bars"`
	}
	path := "/v2/stocks/" + url.PathEscape(strings.ToUpper(symbol)) + "/bars"
	if err := a.get(ctx, a.data, path, q, &body); err != nil {
		return nil, fmt.Errorf("get bars %s: %w", symbol, err)
	}

	bars := body.Bars
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	out := make([]types.PriceBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.toBar())
	}
	return out, nil
}

func (a *Alpaca) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	var body struct {
		Quote quoteJSON `json:"quote"`
	}
	path := "/v2/stocks/" + url.PathEscape(strings.ToUpper(symbol)) + "/quotes/latest"
	if err := a.get(ctx, a.data, path, url.Values{"feed": {"iex"}}, &body); err != nil {
		return types.Quote{}, fmt.Errorf("get quote %s: %w", symbol, err)
	}
	return body.Quote.toQuote(symbol), nil
}

func (a *Alpaca) GetOptionQuote(ctx context.Context, optionSymbol string) (types.Quote, error) {
	var body struct {
		Quotes map[string]quoteJSON `json:"quotes"`
	}
	if err := a.get(ctx, a.data, "/v1beta1/options/quotes/latest", url.Values{"symbols": {optionSymbol}}, &body); err != nil {
		return types.Quote{}, fmt.Errorf("get option quote %s: %w", optionSymbol, err)
	}
	q, ok := body.Quotes[optionSymbol]
	if !ok {
		return types.Quote{}, fmt.Errorf("no quote for %s", optionSymbol)
	}
	return q.toQuote(optionSymbol), nil
}

// GetOptionChain lists active contracts expiring in the configured window,
// following pagination.
func (a *Alpaca) GetOptionChain(ctx context.Context, symbol string) ([]types.OptionContract, error) {
	now := a.now()
	q := url.Values{}
	q.Set("underlying_symbols", strings.ToUpper(symbol))
	q.Set("status", "active")
	q.Set("expiration_date_gte", now.AddDate(0, a.p.ExpiryMonths, 0).Format("2006-01-02"))
	q.Set("expiration_date_lte", now.AddDate(0, a.p.ExpiryMonths+1, 0).Format("2006-01-02"))
	q.Set("limit", "1000")

	var out []types.OptionContract
	for page := 0; page < 10; page++ {
		var body struct {
			Contracts []contractJSON `json:"option_contracts"`
			NextPage  string         `json:"next_page_token"`
		}
		if err := a.get(ctx, a.trading, "/v2/options/contracts", q, &body); err != nil {
			return nil, fmt.Errorf("get option chain %s: %w", symbol, err)
		}
		for _, c := range body.Contracts {
			if oc, ok := c.toContract(); ok {
				out = append(out, oc)
			}
		}
		if body.NextPage == "" {
			break
		}
		q.Set("page_token", body.NextPage)
	}
	return out, nil
}
