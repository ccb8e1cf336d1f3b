package news

import (
	"regexp"
	"strings"

	"options-signal-bot/internal/types"
)

// WatchlistLookup gives the scorer read access to the engine's watchlist.
type WatchlistLookup interface {
	Symbols() []string
	Contains(symbol string) bool
}

var positiveKeywords = []string{
	"growth", "profit", "gain", "rise", "increase", "success", "positive",
	"bullish", "upgrade", "beat", "exceed", "strong", "boom", "rally",
	"outperform", "buy", "overweight", "target", "higher", "optimistic",
}

var negativeKeywords = []string{
	"loss", "decline", "fall", "drop", "negative", "bearish", "downgrade",
	"miss", "weak", "crash", "recession", "concern", "risk", "uncertainty",
	"underperform", "sell", "underweight", "lower", "pessimistic",
}

var knownTickers = toSet(
	"AAPL", "MSFT", "AMZN", "GOOGL", "GOOG", "META", "TSLA", "NVDA", "JPM",
	"BAC", "WMT", "DIS", "NFLX", "INTC", "AMD", "IBM", "CSCO", "ORCL", "CRM",
	"V", "MA", "PG", "JNJ", "KO", "PEP", "MCD", "NKE", "SBUX", "GS", "MS",
	"SPY", "QQQ", "IWM", "DIA", "XLF", "XLE", "XLK", "XLV", "PYPL", "BABA",
	"UBER", "LYFT", "PLTR", "COIN", "ZM", "SHOP", "SQ", "ROKU", "TTD", "SNAP",
	"TWTR", "PINS", "ETSY", "DASH", "ABNB", "RBLX", "GME", "AMC", "BB", "NOK",
)

// Uppercase acronyms common in financial copy that are not tickers.
var notTickers = toSet(
	"CEO", "CFO", "CTO", "COO", "FBI", "SEC", "FED", "GDP", "IPO", "USA",
	"NYSE", "AI", "ML", "AR", "VR", "API", "EPS", "ETF",
	"ESG", "USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CPI", "PPI",
	"PMI", "FAQ", "CES", "CSS", "HTML", "JSON", "REST", "SQL", "AWS", "GCP",
	"UK", "EU", "UN", "WHO", "IMF", "ECB", "WTO", "CDC", "FDA", "EMA",
)

var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

const (
	longArticleChars = 500
	longArticleBoost = 0.5
	relevanceBoost   = 0.5
)

// Scorer assigns keyword polarity to articles. It never mutates the watchlist.
type Scorer struct {
	watchlist WatchlistLookup
}

func NewScorer(watchlist WatchlistLookup) *Scorer {
	return &Scorer{watchlist: watchlist}
}

// Score annotates each article. An empty input returns an empty slice.
func (s *Scorer) Score(articles []types.Article) []types.ScoredArticle {
	out := make([]types.ScoredArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, s.ScoreOne(a))
	}
	return out
}

// ScoreOne scores a single article.
//
// score = positiveHits - negativeHits, +0.5 when the text is longer than 500
// characters, +0.5 for every detected symbol on the watchlist. The label
// compares hits only; relevance does not make an article positive.
func (s *Scorer) ScoreOne(a types.Article) types.ScoredArticle {
	full := a.Headline + " " + a.Summary
	text := strings.ToLower(full)

	pos := float64(countAll(text, positiveKeywords))
	neg := float64(countAll(text, negativeKeywords))
	if len(text) > longArticleChars {
		pos += longArticleBoost
	}

	detected := s.DetectSymbols(full)
	relevance := 0.0
	if s.watchlist != nil {
		for _, sym := range detected {
			if s.watchlist.Contains(sym) {
				relevance += relevanceBoost
			}
		}
	}

	label := types.Neutral
	if pos > neg {
		label = types.Positive
	} else if neg > pos {
		label = types.Negative
	}

	score := pos - neg + relevance
	return types.ScoredArticle{
		Article:         a,
		Sentiment:       label,
		SentimentScore:  score,
		DetectedSymbols: detected,
		TradingImpact:   TradingImpact(score),
	}
}

// DetectSymbols finds tickers in text. Watchlist symbols that appear as whole
// words (any case) come first; then uppercase 1-5 letter tokens that are
// known tickers or multi-letter tokens outside the acronym list.
func (s *Scorer) DetectSymbols(text string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(sym string) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}

	if s.watchlist != nil {
		for _, sym := range s.watchlist.Symbols() {
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(sym) + `\b`)
			if err != nil {
				continue
			}
			if re.MatchString(text) {
				add(sym)
			}
		}
	}

	for _, tok := range tickerPattern.FindAllString(text, -1) {
		if knownTickers[tok] || (len(tok) > 1 && !notTickers[tok]) {
			add(tok)
		}
	}
	return out
}

// TradingImpact labels a per-article score.
func TradingImpact(score float64) string {
	switch {
	case score > 1.5:
		return "Strong Bullish"
	case score > 0.5:
		return "Mildly Bullish"
	case score < -1.5:
		return "Strong Bearish"
	case score < -0.5:
		return "Mildly Bearish"
	default:
		return "Neutral"
	}
}

func countAll(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		n += strings.Count(text, k)
	}
	return n
}

func toSet(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
