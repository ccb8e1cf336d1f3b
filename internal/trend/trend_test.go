package trend

import (
	"reflect"
	"testing"

	"options-signal-bot/internal/types"
)

func bars(closes, volumes []float64) []types.PriceBar {
	out := make([]types.PriceBar, len(closes))
	for i := range closes {
		out[i] = types.PriceBar{Close: closes[i], Volume: volumes[i]}
	}
	return out
}

func TestShort(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name     string
		closes   []float64
		volumes  []float64
		ok       bool
		trending bool
	}{
		{"spike up", []float64{100, 103}, []float64{1e6, 2e6}, true, true},
		{"spike down", []float64{100, 97}, []float64{1e6, 2e6}, true, true},
		{"volume only", []float64{100, 101}, []float64{1e6, 2e6}, true, false},
		{"move only", []float64{100, 105}, []float64{1e6, 1.2e6}, true, false},
		{"ratio at threshold", []float64{100, 105}, []float64{1e6, 1.5e6}, true, false},
		{"single bar", []float64{100}, []float64{1e6}, false, false},
		{"zero previous volume", []float64{100, 110}, []float64{0, 1e6}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Short(bars(tt.closes, tt.volumes), th)
			if ok != tt.ok || m.Trending != tt.trending {
				t.Errorf("expected ok=%v trending=%v, got ok=%v %+v", tt.ok, tt.trending, ok, m)
			}
		})
	}
}

func fullBars(oldVol, newVol, firstClose, lastClose float64) []types.PriceBar {
	out := make([]types.PriceBar, 20)
	for i := range out {
		v := oldVol
		if i >= 15 {
			v = newVol
		}
		out[i] = types.PriceBar{Close: firstClose, Volume: v}
	}
	out[19].Close = lastClose
	return out
}

func TestFull(t *testing.T) {
	th := DefaultThresholds()

	m, ok := Full(fullBars(1e6, 2e6, 100, 106), th)
	if !ok || !m.Trending {
		t.Errorf("expected trending, got %+v", m)
	}
	if m.VolumeRatio != 2 {
		t.Errorf("expected volume ratio 2, got %v", m.VolumeRatio)
	}

	if m, _ := Full(fullBars(1e6, 2e6, 100, 104), th); m.Trending {
		t.Error("4% move should not trend")
	}
	if m, _ := Full(fullBars(1e6, 1.4e6, 100, 90), th); m.Trending {
		t.Error("1.4x volume should not trend")
	}
	if _, ok := Full(fullBars(1e6, 2e6, 100, 110)[1:], th); ok {
		t.Error("19 bars should not be evaluated")
	}

	// only the last 20 bars count
	long := append(fullBars(9e9, 9e9, 1, 1), fullBars(1e6, 2e6, 100, 94)...)
	if m, ok := Full(long, th); !ok || !m.Trending || m.PriceChange >= 0 {
		t.Errorf("expected bearish trend from last window, got %+v", m)
	}
}

func TestSetReplaceDropsStale(t *testing.T) {
	s := NewSet()
	s.Replace([]string{"TSLA", "AAPL"})
	if !reflect.DeepEqual(s.Symbols(), []string{"AAPL", "TSLA"}) {
		t.Errorf("unexpected members %v", s.Symbols())
	}
	s.Replace([]string{"NVDA"})
	if s.Contains("TSLA") || !s.Contains("NVDA") || s.Len() != 1 {
		t.Errorf("replace should drop stale members, got %v", s.Symbols())
	}
}

func TestReason(t *testing.T) {
	if Reason(0.03) != "Volume spike with price increase" || Reason(-0.03) != "Volume spike with price decrease" {
		t.Error("unexpected reason text")
	}
}
