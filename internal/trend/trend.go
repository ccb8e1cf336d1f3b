package trend

import (
	"math"
	"sort"
	"sync"

	"options-signal-bot/internal/types"
)

const (
	// FullWindowBars is the minimum history for the full check.
	FullWindowBars = 20
	recentBars     = 5
)

type Thresholds struct {
	VolumeRatio    float64
	ShortPriceMove float64
	FullPriceMove  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{VolumeRatio: 1.5, ShortPriceMove: 0.02, FullPriceMove: 0.05}
}

// Metrics are the measured volume ratio and fractional price change.
type Metrics struct {
	VolumeRatio float64
	PriceChange float64
	Trending    bool
}

// Short compares the latest bar with the one before it. Trending requires
// volume ratio above threshold and an absolute move above ShortPriceMove.
// ok is false when there are fewer than two bars or the previous bar has no
// volume or price to divide by.
func Short(bars []types.PriceBar, th Thresholds) (m Metrics, ok bool) {
	if len(bars) < 2 {
		return Metrics{}, false
	}
	latest, prev := bars[len(bars)-1], bars[len(bars)-2]
	if prev.Volume <= 0 || prev.Close <= 0 {
		return Metrics{}, false
	}
	m.VolumeRatio = latest.Volume / prev.Volume
	m.PriceChange = (latest.Close - prev.Close) / prev.Close
	m.Trending = m.VolumeRatio > th.VolumeRatio && math.Abs(m.PriceChange) > th.ShortPriceMove
	return m, true
}

// Full compares the mean volume of the last 5 bars with the mean of the 15
// before them, and the latest close with the first close of that older
// window. Under 20 bars a symbol is never trending.
func Full(bars []types.PriceBar, th Thresholds) (m Metrics, ok bool) {
	if len(bars) < FullWindowBars {
		return Metrics{}, false
	}
	window := bars[len(bars)-FullWindowBars:]
	older, recent := window[:FullWindowBars-recentBars], window[FullWindowBars-recentBars:]

	olderVol := meanVolume(older)
	if olderVol <= 0 || older[0].Close <= 0 {
		return Metrics{}, false
	}
	m.VolumeRatio = meanVolume(recent) / olderVol
	m.PriceChange = (recent[len(recent)-1].Close - older[0].Close) / older[0].Close
	m.Trending = m.VolumeRatio > th.VolumeRatio && math.Abs(m.PriceChange) > th.FullPriceMove
	return m, true
}

func meanVolume(bars []types.PriceBar) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}

// Reason describes a short-form spike for display.
func Reason(priceChange float64) string {
	if priceChange > 0 {
		return "Volume spike with price increase"
	}
	return "Volume spike with price decrease"
}

// Set is the trending membership of one engine. Each detection pass replaces
// it wholesale, so symbols that stop trending drop out.
type Set struct {
	mu      sync.RWMutex
	members map[string]bool
}

func NewSet() *Set {
	return &Set{members: map[string]bool{}}
}

func (s *Set) Replace(symbols []string) {
	m := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		m[sym] = true
	}
	s.mu.Lock()
	s.members = m
	s.mu.Unlock()
}

func (s *Set) Contains(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[symbol]
}

// Symbols returns members in sorted order.
func (s *Set) Symbols() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.members))
	for sym := range s.members {
		out = append(out, sym)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}
