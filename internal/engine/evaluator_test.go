package engine

import (
	"math"
	"reflect"
	"testing"

	"options-signal-bot/internal/types"
)

func TestEvaluate(t *testing.T) {
	e := NewEvaluator(DefaultEvalParams())
	long := &types.Position{Symbol: "AAPL", Side: "long", Qty: 100}
	short := &types.Position{Symbol: "AAPL", Side: "short", Qty: -100}

	tests := []struct {
		name       string
		strength   int
		sentiment  string
		trending   bool
		pos        *types.Position
		action     string
		optionType string
		combined   float64
	}{
		{"strong buy with good news", 60, types.Positive, false, nil, types.ActionBuy, types.OptionCall, 0.9},
		{"trending bonus follows technicals", 20, types.Positive, true, nil, types.ActionBuy, types.OptionCall, 0.7},
		{"sell with trending", -50, types.Neutral, true, nil, types.ActionSell, types.OptionPut, -0.7},
		{"zero tech trending is bearish bonus", 0, types.Neutral, true, nil, types.ActionHold, "", -0.2},
		{"news alone is not enough", 0, types.Positive, false, nil, types.ActionHold, "", 0.3},
		{"exactly at threshold holds", 10, types.Positive, false, nil, types.ActionHold, "", 0.4},
		{"long plus sell closes long", -60, types.Negative, false, long, types.ActionCloseLong, types.OptionPut, -0.9},
		{"short plus buy closes short", 60, types.Neutral, false, short, types.ActionCloseShort, types.OptionCall, 0.6},
		{"long plus buy stays buy", 60, types.Neutral, false, long, types.ActionBuy, types.OptionCall, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := e.Evaluate("AAPL", 190, types.Signal{Strength: tt.strength}, types.NewsImpact{Sentiment: tt.sentiment}, tt.trending, tt.pos)
			if op.Action != tt.action {
				t.Errorf("action = %s, want %s", op.Action, tt.action)
			}
			if op.OptionType != tt.optionType {
				t.Errorf("option type = %q, want %q", op.OptionType, tt.optionType)
			}
			if math.Abs(op.CombinedScore-tt.combined) > 1e-9 {
				t.Errorf("combined = %.4f, want %.4f", op.CombinedScore, tt.combined)
			}
			if math.Abs(op.Confidence-math.Abs(tt.combined)) > 1e-9 {
				t.Errorf("confidence = %.4f, want %.4f", op.Confidence, math.Abs(tt.combined))
			}
		})
	}
}

func TestEvaluateConfidenceIsCapped(t *testing.T) {
	e := NewEvaluator(DefaultEvalParams())
	op := e.Evaluate("NVDA", 100, types.Signal{Strength: 100}, types.NewsImpact{Sentiment: types.Positive}, true, nil)
	if op.Confidence != 1 {
		t.Errorf("expected confidence capped at 1, got %.2f", op.Confidence)
	}
	if math.Abs(op.CombinedScore-1.5) > 1e-9 {
		t.Errorf("combined score should stay uncapped, got %.2f", op.CombinedScore)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewEvaluator(DefaultEvalParams())
	sig := types.Signal{Strength: -45, Recommendation: types.Sell}
	impact := types.NewsImpact{Sentiment: types.Negative, Score: -1}
	pos := &types.Position{Side: "long", Qty: 10}
	a := e.Evaluate("TSLA", 250, sig, impact, true, pos)
	b := e.Evaluate("TSLA", 250, sig, impact, true, pos)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs gave different results:\n%+v\n%+v", a, b)
	}
}

func TestRank(t *testing.T) {
	e := NewEvaluator(DefaultEvalParams())
	ops := []types.Opportunity{
		{Symbol: "A", Action: types.ActionBuy, Confidence: 0.45},
		{Symbol: "B", Action: types.ActionHold, Confidence: 0.3},
		{Symbol: "C", Action: types.ActionSell, Confidence: 0.9},
		{Symbol: "D", Action: types.ActionBuy, Confidence: 0.6},
		{Symbol: "E", Action: types.ActionCloseLong, Confidence: 0.7},
		{Symbol: "F", Action: types.ActionBuy, Confidence: 0.55},
	}
	got := e.Rank(ops)
	var syms []string
	for _, op := range got {
		syms = append(syms, op.Symbol)
	}
	if want := []string{"C", "E", "D"}; !reflect.DeepEqual(syms, want) {
		t.Errorf("Rank = %v, want %v", syms, want)
	}
}

func TestRankDropsLowConfidenceInsideTopThree(t *testing.T) {
	e := NewEvaluator(DefaultEvalParams())
	ops := []types.Opportunity{
		{Symbol: "A", Action: types.ActionBuy, Confidence: 0.8},
		{Symbol: "B", Action: types.ActionBuy, Confidence: 0.45},
		{Symbol: "C", Action: types.ActionSell, Confidence: 0.42},
		{Symbol: "D", Action: types.ActionSell, Confidence: 0.41},
	}
	got := e.Rank(ops)
	if len(got) != 1 || got[0].Symbol != "A" {
		t.Errorf("expected only A, got %+v", got)
	}
}
