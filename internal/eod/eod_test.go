package eod

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"options-signal-bot/internal/tradelog"
)

func TestSummarizeDay(t *testing.T) {
	j := tradelog.New(t.TempDir(), time.UTC)
	entries := []tradelog.Entry{
		{Symbol: "AAPL", OptionSymbol: "AAPL270618C00190000", Side: "buy", Qty: 2, Price: 4.0},
		{Symbol: "AAPL", OptionSymbol: "AAPL270618C00190000", Side: "sell", Qty: 2, Price: 5.0},
		{Symbol: "TSLA", OptionSymbol: "TSLA270618P00250000", Side: "buy", Qty: 1, Price: 10.0},
	}
	for _, e := range entries {
		if err := j.Append(e); err != nil {
			t.Fatal(err)
		}
	}

	s := NewSummarizer(j)
	p, err := s.SummarizeToday(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// header + 2 contracts + total
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d: %v", len(rows), rows)
	}
	if rows[1][0] != "AAPL270618C00190000" || rows[1][6] != "200.00" {
		t.Errorf("expected AAPL round trip of $200, got %v", rows[1])
	}
	if rows[2][6] != "0.00" {
		t.Errorf("open TSLA leg has no realized P&L, got %v", rows[2])
	}
	if rows[3][0] != "TOTAL" || rows[3][6] != "200.00" || rows[3][7] != "1800.00" {
		t.Errorf("unexpected total row %v", rows[3])
	}

	realized, err := Realized(j, j.Now())
	if err != nil || realized != 200 {
		t.Errorf("expected realized 200, got %v %v", realized, err)
	}
}

func TestRealizedUsesJournaledPnL(t *testing.T) {
	j := tradelog.New(t.TempDir(), time.UTC)
	entries := []tradelog.Entry{
		// closes of trades opened on earlier days
		{Symbol: "AAPL", OptionSymbol: "AAPL270618C00110000", Side: "sell", Qty: 5, Price: 2.4, Extra: map[string]any{"pnl": 200.0}},
		{Symbol: "MSFT", OptionSymbol: "MSFT270618P00400000", Side: "sell", Qty: 2, Price: 1.5, Extra: map[string]any{"pnl": -100.0}},
		// opened and closed today, the sell books the round trip
		{Symbol: "NVDA", OptionSymbol: "NVDA270618C00120000", Side: "buy", Qty: 1, Price: 3},
		{Symbol: "NVDA", OptionSymbol: "NVDA270618C00120000", Side: "sell", Qty: 1, Price: 3.5, Extra: map[string]any{"pnl": 50.0}},
	}
	for _, e := range entries {
		if err := j.Append(e); err != nil {
			t.Fatal(err)
		}
	}

	realized, err := Realized(j, j.Now())
	if err != nil {
		t.Fatal(err)
	}
	if realized != 150 {
		t.Errorf("realized = %.2f, want 150", realized)
	}

	p, err := NewSummarizer(j).SummarizeToday(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"AAPL270618C00110000": "200.00",
		"MSFT270618P00400000": "-100.00",
		"NVDA270618C00120000": "50.00",
		"TOTAL":               "150.00",
	}
	for _, r := range rows[1:] {
		if w, ok := want[r[0]]; ok && r[6] != w {
			t.Errorf("%s realized = %s, want %s", r[0], r[6], w)
		}
	}
}

func TestSummarizeDayWithoutTrades(t *testing.T) {
	s := NewSummarizer(tradelog.New(t.TempDir(), time.UTC))
	p, err := s.SummarizeDay(context.Background(), time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil || p != "" {
		t.Errorf("expected no output, got %q %v", p, err)
	}
}
