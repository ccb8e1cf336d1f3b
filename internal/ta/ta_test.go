package ta

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSMA(t *testing.T) {
	if got := SMA([]float64{1, 2, 3, 4, 5}, 3); got != 4 {
		t.Errorf("SMA = %v, want 4", got)
	}
	if !math.IsNaN(SMA([]float64{1, 2}, 3)) {
		t.Error("short input should be NaN")
	}
}

func TestEMASeries(t *testing.T) {
	got := EMASeries([]float64{1, 2, 3, 4}, 2)
	want := []float64{1.5, 2.5, 3.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("ema[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !math.IsNaN(EMA([]float64{1}, 2)) {
		t.Error("EMA of short input should be NaN")
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"only gains", []float64{1, 2, 3, 4, 5}, 100},
		{"flat", []float64{3, 3, 3, 3, 3}, 50},
		{"wilder smoothing", []float64{1, 2, 1, 2, 1}, 37.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RSI(tt.closes, 2); !near(got, tt.want) {
				t.Errorf("RSI = %v, want %v", got, tt.want)
			}
		})
	}
	if !math.IsNaN(RSI([]float64{1, 2}, 2)) {
		t.Error("RSI needs period+1 closes")
	}
}

func TestMACDFlatSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10
	}
	line, sig := MACD(closes, 12, 26, 9)
	if !near(line, 0) || !near(sig, 0) {
		t.Errorf("MACD of a flat series = %v/%v, want 0/0", line, sig)
	}
	if l, _ := MACD(closes[:20], 12, 26, 9); !math.IsNaN(l) {
		t.Error("MACD needs slow-period closes")
	}
}

func TestBollingerFlat(t *testing.T) {
	mid, up, low := Bollinger([]float64{5, 5, 5, 5}, 4, 2)
	if mid != 5 || up != 5 || low != 5 {
		t.Errorf("bands = %v/%v/%v, want all 5", mid, up, low)
	}
}

func TestStochastic(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	k, d := Stochastic(vals, vals, vals, 3, 2)
	if k != 100 || d != 100 {
		t.Errorf("rising closes at the high: k=%v d=%v, want 100/100", k, d)
	}
	flat := []float64{2, 2, 2, 2}
	if k, _ := Stochastic(flat, flat, flat, 3, 2); k != 50 {
		t.Errorf("flat range k = %v, want 50", k)
	}
	if k, _ := Stochastic(vals, vals[:4], vals, 3, 2); !math.IsNaN(k) {
		t.Error("mismatched lengths should be NaN")
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	if v := AnnualizedVolatility([]float64{10, 10, 10, 10}, 3); v != 0 {
		t.Errorf("flat series volatility = %v, want 0", v)
	}
	if v := AnnualizedVolatility([]float64{10, 11, 10, 11}, 3); v <= 0 {
		t.Errorf("oscillating series should be volatile, got %v", v)
	}
	if v := AnnualizedVolatility([]float64{10, 11, 10}, 3); v != 0 {
		t.Errorf("period returns need period+1 closes, got %v", v)
	}
}

func TestAnnualizedVolatilityUsesTrailingWindow(t *testing.T) {
	// wild early history, flat trailing window
	closes := []float64{10, 20, 5, 40, 10, 10, 10, 10}
	if v := AnnualizedVolatility(closes, 3); v != 0 {
		t.Errorf("only the last 3 returns count, got %v", v)
	}
	if v := AnnualizedVolatility(closes, 7); v <= 0 {
		t.Errorf("a window reaching the moves should be volatile, got %v", v)
	}
}
