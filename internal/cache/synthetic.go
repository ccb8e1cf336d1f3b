package cache

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"options-signal-bot/internal/types"
)

// SyntheticSource is what fabricated data is labelled with.
const SyntheticSource = "synthetic"

// Generator fabricates plausible market data for degraded operation.
// The underlying rand.Rand is guarded so one Generator can serve a fan-out.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng, now: time.Now}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func basePrice(symbol string, r float64) float64 {
	switch symbol {
	case "AAPL", "MSFT", "GOOGL", "AMZN":
		return 150 + r*100
	case "SPY", "QQQ", "DIA", "IWM":
		return 300 + r*150
	case "TSLA", "NVDA":
		return 200 + r*150
	default:
		return 100
	}
}

func dailyVolatility(symbol string) float64 {
	switch symbol {
	case "TSLA", "NVDA", "AMZN":
		return 0.018
	default:
		return 0.01
	}
}

func baseVolume(symbol string, r float64) float64 {
	switch symbol {
	case "AAPL", "MSFT", "SPY", "QQQ":
		return 5_000_000 + r*3_000_000
	default:
		return 1_000_000 + r*1_000_000
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Bars returns days daily bars ending yesterday, a random walk from a
// symbol-tuned base price.
func (g *Generator) Bars(symbol string, days int) []types.PriceBar {
	price := basePrice(symbol, g.float())
	vol := dailyVolatility(symbol)
	today := g.now().Truncate(24 * time.Hour)

	bars := make([]types.PriceBar, 0, days)
	for i := days; i > 0; i-- {
		open := price
		closePx := open + (g.float()*2-1)*vol*open
		high := math.Max(open, closePx) + g.float()*0.02*open
		low := math.Min(open, closePx) - g.float()*0.02*open
		bars = append(bars, types.PriceBar{
			Ts:     today.AddDate(0, 0, -i),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closePx),
			Volume: math.Round(baseVolume(symbol, g.float())),
		})
		price = closePx
	}
	return bars
}

// maxSyntheticNewsSymbols caps how many watchlist symbols get fabricated news.
const maxSyntheticNewsSymbols = 10

// NewsImpact fabricates a per-symbol impact for the first symbols of the
// watchlist. Every value is flagged IsRealData=false.
func (g *Generator) NewsImpact(symbols []string) map[string]types.NewsImpact {
	out := make(map[string]types.NewsImpact)
	now := g.now()
	if len(symbols) > maxSyntheticNewsSymbols {
		symbols = symbols[:maxSyntheticNewsSymbols]
	}

	for _, sym := range symbols {
		var sentiment string
		var score float64
		switch int(g.float() * 3) {
		case 0:
			sentiment, score = types.Positive, 0.3+g.float()*0.5
		case 1:
			sentiment, score = types.Neutral, -0.2+g.float()*0.4
		default:
			sentiment, score = types.Negative, -0.3-g.float()*0.5
		}

		recent := []types.ScoredArticle{{
			Article: types.Article{
				Headline:    fmt.Sprintf("%s Announces Quarterly Results", sym),
				Summary:     fmt.Sprintf("%s reported its quarterly earnings, showing performance aligned with market expectations.", sym),
				Source:      SyntheticSource,
				PublishedAt: now.Add(-time.Duration(g.float() * float64(48*time.Hour))),
			},
			Sentiment:      sentiment,
			SentimentScore: score,
		}}
		if g.float() > 0.5 {
			recent = append(recent, types.ScoredArticle{
				Article: types.Article{
					Headline:    fmt.Sprintf("Analyst Updates Outlook for %s", sym),
					Summary:     fmt.Sprintf("Financial analysts have updated their projections for %s based on recent market developments.", sym),
					Source:      SyntheticSource,
					PublishedAt: now.Add(-time.Duration(g.float() * float64(24*time.Hour))),
				},
				Sentiment:      sentiment,
				SentimentScore: score * 0.8,
			})
		}

		out[sym] = types.NewsImpact{
			Symbol:         sym,
			Sentiment:      sentiment,
			Score:          score,
			ArticleCount:   len(recent),
			RecentArticles: recent,
			IsRealData:     false,
			Source:         SyntheticSource,
		}
	}
	return out
}
