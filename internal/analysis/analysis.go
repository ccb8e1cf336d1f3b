package analysis

import (
	"errors"
	"fmt"
	"math"

	"options-signal-bot/internal/ta"
	"options-signal-bot/internal/types"
)

// MinBars is the shortest series the indicator set is defined on (SMA50).
const MinBars = 50

var ErrInsufficientData = errors.New("insufficient price data")

// Result is the indicator snapshot and derived signal for one symbol.
type Result struct {
	Symbol   string         `json:"symbol"`
	Snapshot types.Snapshot `json:"snapshot"`
	Signal   types.Signal   `json:"signal"`
}

// Analyze computes indicators over bars and scores them. It holds no state,
// so the same bars always produce the same Result.
func Analyze(symbol string, bars []types.PriceBar) (*Result, error) {
	snap, err := Compute(bars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return &Result{Symbol: symbol, Snapshot: snap, Signal: Score(snap)}, nil
}

// Compute builds the indicator snapshot at the latest bar.
func Compute(bars []types.PriceBar) (types.Snapshot, error) {
	if len(bars) < MinBars {
		return types.Snapshot{}, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(bars), MinBars)
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	vols := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], highs[i], lows[i], vols[i] = b.Close, b.High, b.Low, b.Volume
	}

	mid, up, low := ta.Bollinger(closes, 20, 2)
	line, sig := ta.MACD(closes, 12, 26, 9)
	k, d := ta.Stochastic(highs, lows, closes, 14, 3)

	return types.Snapshot{
		Price:      closes[len(closes)-1],
		SMA20:      ta.SMA(closes, 20),
		SMA50:      ta.SMA(closes, 50),
		EMA12:      ta.EMA(closes, 12),
		EMA26:      ta.EMA(closes, 26),
		RSI:        ta.RSI(closes, 14),
		MACD:       types.MACD{Value: line, Signal: sig},
		Bollinger:  types.Bollinger{Upper: up, Middle: mid, Lower: low},
		Stochastic: types.Stochastic{K: k, D: d},
		Volume:     vols[len(vols)-1],
		AvgVolume:  ta.SMA(vols, 20),
		HistVol:    ta.AnnualizedVolatility(closes, 20),
	}, nil
}

// Score turns a snapshot into bullish and bearish votes.
//
// Votes:
//   - trend: price > SMA20 > SMA50 is +2 bullish, the mirror is +2 bearish
//   - RSI: <30 is +1 bullish, >70 is +1 bearish, otherwise +0.5 to the side of 50
//   - MACD: +1 toward the greater of line and signal
//   - Bollinger: below lower band +1 bullish, above upper +1 bearish
//   - volume above 1.5x average adds +0.5 to the side already strictly ahead
//   - stochastic: %K and %D both <20 +0.5 bullish, both >80 +0.5 bearish
//
// strength = round(100 * (bull - bear) / (bull + bear)).
func Score(s types.Snapshot) types.Signal {
	sig := types.Signal{
		Trend:            "neutral",
		Momentum:         "neutral",
		Volatility:       "normal",
		VolumeState:      "normal",
		OverallDirection: "neutral",
		Recommendation:   types.Hold,
	}
	var bull, bear float64

	switch {
	case s.Price > s.SMA20 && s.SMA20 > s.SMA50:
		sig.Trend = "bullish"
		bull += 2
		sig.Notes = append(sig.Notes, "Price above rising moving averages")
	case s.Price < s.SMA20 && s.SMA20 < s.SMA50:
		sig.Trend = "bearish"
		bear += 2
		sig.Notes = append(sig.Notes, "Price below falling moving averages")
	}

	switch {
	case math.IsNaN(s.RSI):
	case s.RSI < 30:
		sig.Momentum = "oversold"
		bull++
		sig.Notes = append(sig.Notes, "RSI oversold")
	case s.RSI > 70:
		sig.Momentum = "overbought"
		bear++
		sig.Notes = append(sig.Notes, "RSI overbought")
	case s.RSI > 50:
		bull += 0.5
	default:
		bear += 0.5
	}

	if s.MACD.Value > s.MACD.Signal {
		bull++
	} else if s.MACD.Value < s.MACD.Signal {
		bear++
	}

	if s.Price < s.Bollinger.Lower {
		sig.Volatility = "oversold"
		bull++
		sig.Notes = append(sig.Notes, "Price at lower Bollinger band")
	} else if s.Price > s.Bollinger.Upper {
		sig.Volatility = "overbought"
		bear++
		sig.Notes = append(sig.Notes, "Price at upper Bollinger band")
	}

	if s.AvgVolume > 0 {
		switch {
		case s.Volume > s.AvgVolume*1.5:
			sig.VolumeState = "high"
			if bull > bear {
				bull += 0.5
			} else if bear > bull {
				bear += 0.5
			}
			sig.Notes = append(sig.Notes, "Above average volume")
		case s.Volume < s.AvgVolume*0.5:
			sig.VolumeState = "low"
			sig.Notes = append(sig.Notes, "Below average volume")
		}
	}

	if s.Stochastic.K < 20 && s.Stochastic.D < 20 {
		bull += 0.5
	} else if s.Stochastic.K > 80 && s.Stochastic.D > 80 {
		bear += 0.5
	}

	sig.BullishVotes, sig.BearishVotes = bull, bear
	if total := bull + bear; total > 0 {
		sig.Strength = int(math.Floor((bull-bear)/total*100 + 0.5))
	}
	switch {
	case sig.Strength > 30:
		sig.OverallDirection = "bullish"
		sig.Recommendation = types.Buy
	case sig.Strength < -30:
		sig.OverallDirection = "bearish"
		sig.Recommendation = types.Sell
	}
	return sig
}
