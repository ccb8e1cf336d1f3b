package news

import "options-signal-bot/internal/types"

const (
	// ArticlesPerSymbol is how many headlines are fetched per symbol.
	ArticlesPerSymbol = 3
	recentPerSymbol   = 2
)

// BuildImpact averages article scores into a per-symbol impact. The label
// follows the sign of the average; no articles means neutral with score 0.
func BuildImpact(symbol string, scored []types.ScoredArticle, source string) types.NewsImpact {
	total := 0.0
	for _, a := range scored {
		total += a.SentimentScore
	}
	avg := 0.0
	if len(scored) > 0 {
		avg = total / float64(len(scored))
	}

	label := types.Neutral
	if avg > 0 {
		label = types.Positive
	} else if avg < 0 {
		label = types.Negative
	}

	recent := scored
	if len(recent) > recentPerSymbol {
		recent = recent[:recentPerSymbol]
	}
	return types.NewsImpact{
		Symbol:         symbol,
		Sentiment:      label,
		Score:          avg,
		ArticleCount:   len(scored),
		RecentArticles: append([]types.ScoredArticle(nil), recent...),
		IsRealData:     true,
		Source:         source,
	}
}
