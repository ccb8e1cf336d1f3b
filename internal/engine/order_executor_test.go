package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"options-signal-bot/internal/types"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestNearestExpiration(t *testing.T) {
	chain := []types.OptionContract{
		{Expiration: day(2027, 5, 21)},
		{Expiration: day(2027, 6, 18)},
		{Expiration: day(2027, 7, 16)},
	}
	got, ok := nearestExpiration(chain, day(2027, 6, 14))
	if !ok || !got.Equal(day(2027, 6, 18)) {
		t.Errorf("got %v %v, want 2027-06-18", got, ok)
	}
	if _, ok := nearestExpiration(nil, day(2027, 6, 14)); ok {
		t.Error("empty chain should report no expiration")
	}
}

func TestSelectATM(t *testing.T) {
	exp := day(2027, 6, 18)
	chain := []types.OptionContract{
		{Symbol: "C185", Type: "call", Strike: 185, Expiration: exp},
		{Symbol: "C188", Type: "call", Strike: 188, Expiration: exp},
		{Symbol: "C190", Type: "CALL", Strike: 190, Expiration: exp},
		{Symbol: "P190", Type: "put", Strike: 190, Expiration: exp},
		{Symbol: "C190L", Type: "call", Strike: 190, Expiration: day(2027, 9, 17)},
	}
	got, ok := selectATM(chain, 189.5, exp, types.OptionCall, 0.02)
	if !ok || got.Symbol != "C190" {
		t.Errorf("expected C190, got %q %v", got.Symbol, ok)
	}
	got, ok = selectATM(chain, 189.5, exp, types.OptionPut, 0.02)
	if !ok || got.Symbol != "P190" {
		t.Errorf("expected P190, got %q %v", got.Symbol, ok)
	}
	if _, ok := selectATM(chain, 250, exp, types.OptionCall, 0.02); ok {
		t.Error("no strike within 2% of 250 should match")
	}
}

func TestPlanAbortsWithoutBuyingPower(t *testing.T) {
	brk := &fakeBroker{account: types.Account{BuyingPower: 1000}}
	oe := &orderExecutor{
		broker:       brk,
		risk:         newRiskManager(0.02, 5, 0.05, 0.15),
		expiryMonths: 8,
		atmTolerance: 0.02,
		now:          func() time.Time { return testNow },
	}
	op := types.Opportunity{Symbol: "AAPL", Action: types.ActionBuy, OptionType: types.OptionCall, Price: 110.4}
	_, err := oe.plan(context.Background(), op, atmChain("AAPL", 110, 10))
	if !errors.Is(err, ErrInsufficientBuyingPower) {
		t.Fatalf("expected ErrInsufficientBuyingPower, got %v", err)
	}
	if len(brk.orders) != 0 {
		t.Errorf("no order should be placed, got %d", len(brk.orders))
	}
}

func TestPlanUsesQuoteWhenNoLastPrice(t *testing.T) {
	chain := atmChain("AAPL", 110, 0)
	brk := &fakeBroker{
		account:   types.Account{BuyingPower: 100000},
		optQuotes: map[string]types.Quote{},
	}
	for _, c := range chain {
		brk.optQuotes[c.Symbol] = types.Quote{BidPx: 3.5, AskPx: 4.5}
	}
	oe := &orderExecutor{
		broker:       brk,
		risk:         newRiskManager(0.02, 5, 0.05, 0.15),
		expiryMonths: 8,
		atmTolerance: 0.02,
		now:          func() time.Time { return testNow },
	}
	op := types.Opportunity{Symbol: "AAPL", Action: types.ActionSell, OptionType: types.OptionPut, Price: 110.4}
	p, err := oe.plan(context.Background(), op, chain)
	if err != nil {
		t.Fatal(err)
	}
	if p.premium != 4 || p.contracts != 5 || p.cost != 2000 || p.target != 2300 {
		t.Errorf("unexpected plan %+v", p)
	}
	if p.contract.Type != "put" || p.contract.Strike != 110 || !p.contract.Expiration.Equal(testExpiry) {
		t.Errorf("unexpected contract %+v", p.contract)
	}
}
