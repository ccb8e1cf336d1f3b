package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

// orderExecutor turns an opportunity into a sized option order.
type orderExecutor struct {
	broker       interfaces.Broker
	risk         *riskManager
	expiryMonths int
	atmTolerance float64
	now          func() time.Time
}

// plan is a fully priced trade ready to be placed.
type plan struct {
	contract  types.OptionContract
	premium   float64
	contracts int
	cost      float64
	target    float64
}

// nearestExpiration returns the chain expiration with the fewest days to
// target, preferring the earlier date on a tie.
func nearestExpiration(chain []types.OptionContract, target time.Time) (time.Time, bool) {
	var best time.Time
	bestDiff := math.MaxFloat64
	for _, c := range chain {
		if c.Expiration.IsZero() {
			continue
		}
		diff := math.Abs(c.Expiration.Sub(target).Hours() / 24)
		if diff < bestDiff || (diff == bestDiff && c.Expiration.Before(best)) {
			best, bestDiff = c.Expiration, diff
		}
	}
	return best, !best.IsZero()
}

// selectATM picks, on the given expiration, the contract of optionType whose
// strike is within tolerance of price and closest to it.
func selectATM(chain []types.OptionContract, price float64, exp time.Time, optionType string, tolerance float64) (types.OptionContract, bool) {
	var (
		best  types.OptionContract
		found bool
	)
	if price <= 0 {
		return best, false
	}
	for _, c := range chain {
		if !sameDay(c.Expiration, exp) || !strings.EqualFold(c.Type, optionType) {
			continue
		}
		dist := math.Abs(price-c.Strike) / price
		if dist > tolerance {
			continue
		}
		if !found || math.Abs(price-c.Strike) < math.Abs(price-best.Strike) {
			best, found = c, true
		}
	}
	return best, found
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// plan selects the contract and sizes the order. chain is the option chain
// fetched during analysis.
func (oe *orderExecutor) plan(ctx context.Context, op types.Opportunity, chain []types.OptionContract) (plan, error) {
	target := oe.now().AddDate(0, oe.expiryMonths, 0)
	exp, ok := nearestExpiration(chain, target)
	if !ok {
		return plan{}, fmt.Errorf("%s: empty option chain: %w", op.Symbol, ErrNoMatchingContract)
	}
	c, ok := selectATM(chain, op.Price, exp, op.OptionType, oe.atmTolerance)
	if !ok {
		return plan{}, fmt.Errorf("%s: no %s within %.0f%% of %.2f expiring %s: %w",
			op.Symbol, op.OptionType, oe.atmTolerance*100, op.Price, exp.Format("2006-01-02"), ErrNoMatchingContract)
	}

	var mid float64
	if c.LastPrice <= 0 {
		q, err := oe.broker.GetOptionQuote(ctx, c.Symbol)
		if err != nil {
			logger.Debug(ctx, "Option quote unavailable, estimating premium", "symbol", op.Symbol, "option_symbol", c.Symbol, "error", err)
		} else {
			mid = q.Mid()
		}
	}
	premium := oe.risk.estimatePremium(c, mid, op.Price)

	acct, err := oe.broker.GetAccount(ctx)
	if err != nil {
		return plan{}, fmt.Errorf("%s: fetch account: %w", op.Symbol, err)
	}
	n := oe.risk.contracts(acct.BuyingPower, premium)
	if n <= 0 {
		return plan{}, fmt.Errorf("%s: buying power %.2f cannot cover one contract at %.2f: %w",
			op.Symbol, acct.BuyingPower, premium, ErrInsufficientBuyingPower)
	}

	cost := oe.risk.cost(n, premium)
	return plan{
		contract:  c,
		premium:   premium,
		contracts: n,
		cost:      cost,
		target:    oe.risk.profitTarget(cost),
	}, nil
}

// open buys to open. Both calls and puts are bought.
func (oe *orderExecutor) open(ctx context.Context, op types.Opportunity, p plan) (types.ActiveTrade, types.OrderResp, error) {
	resp, err := oe.broker.PlaceOptionOrder(ctx, types.OrderReq{
		Symbol: p.contract.Symbol,
		Qty:    p.contracts,
		Side:   types.SideBuy,
		Tag:    op.Action,
	})
	if err != nil {
		return types.ActiveTrade{}, types.OrderResp{}, fmt.Errorf("%s: %w: %w", op.Symbol, ErrOrderPlacement, err)
	}
	return types.ActiveTrade{
		OrderID:      resp.OrderID,
		Symbol:       op.Symbol,
		OptionSymbol: p.contract.Symbol,
		OptionType:   strings.ToLower(p.contract.Type),
		Strike:       p.contract.Strike,
		Expiration:   p.contract.Expiration,
		Contracts:    p.contracts,
		EntryPrice:   p.premium,
		TotalCost:    p.cost,
		ProfitTarget: p.target,
		EntryDate:    oe.now(),
		Status:       types.TradeActive,
	}, resp, nil
}

// liquidate sells to close every contract of t.
func (oe *orderExecutor) liquidate(ctx context.Context, t types.ActiveTrade, reason string) (types.OrderResp, error) {
	resp, err := oe.broker.PlaceOptionOrder(ctx, types.OrderReq{
		Symbol: t.OptionSymbol,
		Qty:    t.Contracts,
		Side:   types.SideSell,
		Tag:    reason,
	})
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("%s: close %s: %w: %w", t.Symbol, t.OptionSymbol, ErrOrderPlacement, err)
	}
	return resp, nil
}
