package engine

import (
	"fmt"
	"math"
	"sort"

	"options-signal-bot/internal/types"
)

// EvalParams weights the score components and gates the result.
type EvalParams struct {
	EntryThreshold   float64
	NewsWeight       float64
	TrendingBonus    float64
	MinConfidence    float64
	MaxOpportunities int
}

func DefaultEvalParams() EvalParams {
	return EvalParams{
		EntryThreshold:   0.4,
		NewsWeight:       0.3,
		TrendingBonus:    0.2,
		MinConfidence:    0.5,
		MaxOpportunities: 3,
	}
}

// Evaluator combines technical, news and trending scores into one action.
// It is pure: the same inputs always produce the same Opportunity.
type Evaluator struct {
	p EvalParams
}

func NewEvaluator(p EvalParams) Evaluator {
	return Evaluator{p: p}
}

// Evaluate scores one symbol. pos is the existing brokerage position on the
// underlying, or nil.
func (e Evaluator) Evaluate(symbol string, price float64, sig types.Signal, impact types.NewsImpact, trending bool, pos *types.Position) types.Opportunity {
	tech := float64(sig.Strength) / 100

	var newsScore float64
	switch impact.Sentiment {
	case types.Positive:
		newsScore = e.p.NewsWeight
	case types.Negative:
		newsScore = -e.p.NewsWeight
	}

	var bonus float64
	if trending {
		// follows the technical direction, not the news
		if tech > 0 {
			bonus = e.p.TrendingBonus
		} else {
			bonus = -e.p.TrendingBonus
		}
	}

	combined := tech + newsScore + bonus
	op := types.Opportunity{
		Symbol:        symbol,
		Action:        types.ActionHold,
		Confidence:    math.Min(math.Abs(combined), 1),
		CombinedScore: combined,
		Scores:        types.Scores{Technical: tech, News: newsScore, Trending: bonus},
		Price:         price,
		Signal:        sig,
		News:          impact,
		Trending:      trending,
	}

	switch {
	case combined > e.p.EntryThreshold:
		op.Action, op.OptionType = types.ActionBuy, types.OptionCall
	case combined < -e.p.EntryThreshold:
		op.Action, op.OptionType = types.ActionSell, types.OptionPut
	}

	if pos != nil {
		long := pos.Side != "short" && pos.Qty > 0
		short := pos.Side == "short" || pos.Qty < 0
		switch {
		case long && op.Action == types.ActionSell:
			op.Action = types.ActionCloseLong
		case short && op.Action == types.ActionBuy:
			op.Action = types.ActionCloseShort
		}
	}
	return op
}

// Rank drops holds, sorts by confidence descending, keeps the top
// MaxOpportunities and then discards any below MinConfidence.
func (e Evaluator) Rank(ops []types.Opportunity) []types.Opportunity {
	out := make([]types.Opportunity, 0, len(ops))
	for _, op := range ops {
		if op.Action != types.ActionHold {
			out = append(out, op)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if e.p.MaxOpportunities > 0 && len(out) > e.p.MaxOpportunities {
		out = out[:e.p.MaxOpportunities]
	}

	kept := out[:0]
	for _, op := range out {
		if op.Confidence >= e.p.MinConfidence {
			kept = append(kept, op)
		}
	}
	return kept
}

// Reason is a one-line explanation for the decision journal.
func Reason(op types.Opportunity) string {
	return fmt.Sprintf("%s: tech %.2f news %+.2f trending %+.2f combined %.2f (%s)",
		op.Action, op.Scores.Technical, op.Scores.News, op.Scores.Trending, op.CombinedScore, op.Signal.Recommendation)
}
