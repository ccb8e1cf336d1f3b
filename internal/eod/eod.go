package eod

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"options-signal-bot/internal/tradelog"
)

// contractMultiplier converts per-share premium into contract value.
const contractMultiplier = 100

type aggRow struct {
	Contract    string
	Symbol      string
	BuyQty      int
	BuyValue    float64
	SellQty     int
	SellValue   float64
	RealizedPnL float64

	// sells without a journaled pnl are matched against the day's buys
	unbookedQty   int
	unbookedValue float64
}

type eodSummarizer struct {
	journal *tradelog.Journal
}

func (s *eodSummarizer) csvPath(t time.Time) string {
	return filepath.Join(s.journal.Dir(), "eod", t.In(s.journal.Location()).Format("2006-01-02")+".csv")
}

// SummarizeDay aggregates the day's journal per option contract and writes a
// CSV. A day without trades returns an empty path and no error.
func (s *eodSummarizer) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entries, err := s.journal.ReadTrades(t)
	if err != nil {
		return "", err
	}
	aggs := aggregate(entries)
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"contract", "symbol", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var totalBuy, totalSell, totalPnL float64
	for _, k := range keys {
		r := aggs[k]
		buyAvg, sellAvg := avg(r.BuyValue, r.BuyQty), avg(r.SellValue, r.SellQty)
		rec := []string{
			r.Contract, r.Symbol,
			strconv.Itoa(r.BuyQty), fmt.Sprintf("%.4f", buyAvg),
			strconv.Itoa(r.SellQty), fmt.Sprintf("%.4f", sellAvg),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", r.BuyValue), fmt.Sprintf("%.2f", r.SellValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyValue
		totalSell += r.SellValue
		totalPnL += r.RealizedPnL
	}
	if err := w.Write([]string{"TOTAL", "", "", "", "", "", fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", totalBuy), fmt.Sprintf("%.2f", totalSell)}); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *eodSummarizer) SummarizeToday(ctx context.Context) (string, error) {
	return s.SummarizeDay(ctx, s.journal.Now())
}

// aggregate groups entries by contract, in dollars. A sell that journaled
// its own pnl books it directly, so closes of trades opened on earlier days
// count. Other sells are matched against the same day's buys.
func aggregate(entries []tradelog.Entry) map[string]*aggRow {
	aggs := map[string]*aggRow{}
	for _, e := range entries {
		key := e.OptionSymbol
		if key == "" {
			key = e.Symbol
		}
		row := aggs[key]
		if row == nil {
			row = &aggRow{Contract: key, Symbol: e.Symbol}
			aggs[key] = row
		}
		value := float64(e.Qty) * e.Price * contractMultiplier
		switch e.Side {
		case "buy", "BUY":
			row.BuyQty += e.Qty
			row.BuyValue += value
		case "sell", "SELL":
			row.SellQty += e.Qty
			row.SellValue += value
			if pnl, ok := extraFloat(e.Extra, "pnl"); ok {
				row.RealizedPnL += pnl
			} else {
				row.unbookedQty += e.Qty
				row.unbookedValue += value
			}
		}
	}
	for _, r := range aggs {
		matched := r.BuyQty
		if r.unbookedQty < matched {
			matched = r.unbookedQty
		}
		if matched == 0 {
			continue
		}
		perContract := avg(r.unbookedValue, r.unbookedQty) - avg(r.BuyValue, r.BuyQty)
		r.RealizedPnL += float64(matched) * perContract
	}
	return aggs
}

func extraFloat(extra map[string]any, key string) (float64, bool) {
	switch v := extra[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func avg(value float64, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	return value / float64(qty)
}
