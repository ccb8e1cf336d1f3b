package analysis

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"options-signal-bot/internal/types"
)

// curvedBars builds 60 daily bars whose close accelerates by dir*11% with a
// small sawtooth so RSI stays off the rails. A straight-line 10% rise on flat
// volume does not make a buy: with no down days RSI pins at 100, which votes
// bearish, and the MACD line settles onto its signal line, which votes
// nothing, so it scores a weak hold.
func curvedBars(dir float64) []types.PriceBar {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.PriceBar, 60)
	for i := range bars {
		x := float64(i) / 59
		c := 100 * (1 + dir*0.11*x*x)
		if i%3 == 2 {
			c -= dir * 0.6
		} else {
			c += dir * 0.3
		}
		bars[i] = types.PriceBar{
			Ts:     start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestAnalyzeRejectsShortSeries(t *testing.T) {
	bars := curvedBars(1)
	for _, n := range []int{0, 1, 20, 49} {
		res, err := Analyze("AAPL", bars[:n])
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("n=%d: expected ErrInsufficientData, got %v", n, err)
		}
		if res != nil {
			t.Errorf("n=%d: expected no result", n)
		}
	}
	if _, err := Analyze("AAPL", bars[:50]); err != nil {
		t.Errorf("50 bars should be enough, got %v", err)
	}
}

func TestAnalyzeRisingSeriesIsBuy(t *testing.T) {
	res, err := Analyze("AAPL", curvedBars(1))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s := res.Snapshot
	if s.RSI <= 50 {
		t.Errorf("expected RSI > 50, got %.2f", s.RSI)
	}
	if s.MACD.Value <= s.MACD.Signal {
		t.Errorf("expected bullish MACD, got line %.4f signal %.4f", s.MACD.Value, s.MACD.Signal)
	}
	if res.Signal.Trend != "bullish" {
		t.Errorf("expected bullish trend, got %s", res.Signal.Trend)
	}
	if res.Signal.Recommendation != types.Buy {
		t.Errorf("expected buy, got %s (strength %d)", res.Signal.Recommendation, res.Signal.Strength)
	}
	if res.Signal.Strength != 100 {
		t.Errorf("expected strength 100, got %d", res.Signal.Strength)
	}
}

func TestAnalyzeFallingSeriesIsSell(t *testing.T) {
	res, err := Analyze("AAPL", curvedBars(-1))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Signal.Recommendation != types.Sell {
		t.Errorf("expected sell, got %s (strength %d)", res.Signal.Recommendation, res.Signal.Strength)
	}
	if res.Signal.Strength >= 0 {
		t.Errorf("expected negative strength, got %d", res.Signal.Strength)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	bars := curvedBars(1)
	a, err := Analyze("MSFT", bars)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Analyze("MSFT", bars)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical bars produced different results")
	}
}

func TestScoreVotes(t *testing.T) {
	neutralStoch := types.Stochastic{K: 50, D: 50}
	wideBands := types.Bollinger{Upper: 1000, Middle: 100, Lower: 1}

	tests := []struct {
		name     string
		snap     types.Snapshot
		bull     float64
		bear     float64
		strength int
		rec      string
	}{
		{
			name: "oversold everything",
			snap: types.Snapshot{
				Price: 90, SMA20: 100, SMA50: 110, RSI: 20,
				MACD:       types.MACD{Value: 1, Signal: 0},
				Bollinger:  types.Bollinger{Upper: 120, Middle: 100, Lower: 95},
				Stochastic: types.Stochastic{K: 10, D: 15},
				Volume:     100, AvgVolume: 100,
			},
			// trend bearish 2; rsi, macd, bb, stoch bullish 3.5
			bull: 3.5, bear: 2, strength: 27, rec: types.Hold,
		},
		{
			name: "volume does not break a tie",
			snap: types.Snapshot{
				Price: 110, SMA20: 105, SMA50: 100, RSI: 75,
				MACD:       types.MACD{Value: 0, Signal: 1},
				Bollinger:  wideBands,
				Stochastic: neutralStoch,
				Volume:     300, AvgVolume: 100,
			},
			bull: 2, bear: 2, strength: 0, rec: types.Hold,
		},
		{
			name: "volume confirms the leader",
			snap: types.Snapshot{
				Price: 110, SMA20: 105, SMA50: 100, RSI: 60,
				MACD:       types.MACD{Value: 1, Signal: 0},
				Bollinger:  wideBands,
				Stochastic: types.Stochastic{K: 90, D: 85},
				Volume:     200, AvgVolume: 100,
			},
			// 2 + 0.5 + 1 + 0.5 volume bullish; stoch 0.5 bearish
			bull: 4, bear: 0.5, strength: 78, rec: types.Buy,
		},
		{
			name: "rsi at 50 leans bearish",
			snap: types.Snapshot{
				Price: 100, SMA20: 100, SMA50: 100, RSI: 50,
				MACD:       types.MACD{Value: 1, Signal: 1},
				Bollinger:  wideBands,
				Stochastic: neutralStoch,
				Volume:     100, AvgVolume: 100,
			},
			bull: 0, bear: 0.5, strength: -100, rec: types.Sell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Score(tt.snap)
			if sig.BullishVotes != tt.bull || sig.BearishVotes != tt.bear {
				t.Errorf("votes: expected %.1f/%.1f, got %.1f/%.1f", tt.bull, tt.bear, sig.BullishVotes, sig.BearishVotes)
			}
			if sig.Strength != tt.strength {
				t.Errorf("strength: expected %d, got %d", tt.strength, sig.Strength)
			}
			if sig.Recommendation != tt.rec {
				t.Errorf("recommendation: expected %s, got %s", tt.rec, sig.Recommendation)
			}
		})
	}
}

func TestScoreStrengthAgreesWithRecommendation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		p := 80 + rng.Float64()*40
		snap := types.Snapshot{
			Price: p,
			SMA20: 80 + rng.Float64()*40,
			SMA50: 80 + rng.Float64()*40,
			RSI:   rng.Float64() * 100,
			MACD:  types.MACD{Value: rng.NormFloat64(), Signal: rng.NormFloat64()},
			Bollinger: types.Bollinger{
				Upper: p + rng.NormFloat64()*5,
				Lower: p + rng.NormFloat64()*5,
			},
			Stochastic: types.Stochastic{K: rng.Float64() * 100, D: rng.Float64() * 100},
			Volume:     rng.Float64() * 3e6,
			AvgVolume:  1e6,
		}
		sig := Score(snap)
		if sig.Strength < -100 || sig.Strength > 100 {
			t.Fatalf("strength out of range: %d", sig.Strength)
		}
		switch sig.Recommendation {
		case types.Buy:
			if sig.Strength <= 30 {
				t.Fatalf("buy with strength %d", sig.Strength)
			}
		case types.Sell:
			if sig.Strength >= -30 {
				t.Fatalf("sell with strength %d", sig.Strength)
			}
		case types.Hold:
			if math.Abs(float64(sig.Strength)) > 30 {
				t.Fatalf("hold with strength %d", sig.Strength)
			}
		default:
			t.Fatalf("unknown recommendation %q", sig.Recommendation)
		}
	}
}
