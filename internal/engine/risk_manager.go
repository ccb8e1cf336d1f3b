package engine

import (
	"github.com/shopspring/decimal"

	"options-signal-bot/internal/types"
)

// contractMultiplier is shares per equity option contract.
const contractMultiplier = 100

// riskManager sizes option positions under a per-trade risk budget.
type riskManager struct {
	riskPct        decimal.Decimal
	maxContracts   int64
	premiumEstPct  decimal.Decimal
	profitTargetUp decimal.Decimal
}

func newRiskManager(riskPct float64, maxContracts int, premiumEstPct, profitTarget float64) *riskManager {
	return &riskManager{
		riskPct:        decimal.NewFromFloat(riskPct),
		maxContracts:   int64(maxContracts),
		premiumEstPct:  decimal.NewFromFloat(premiumEstPct),
		profitTargetUp: decimal.NewFromInt(1).Add(decimal.NewFromFloat(profitTarget)),
	}
}

// estimatePremium prefers the contract's last trade, then the live quote
// midpoint, then a fixed share of the underlying price.
func (rm *riskManager) estimatePremium(c types.OptionContract, quoteMid, underlying float64) float64 {
	switch {
	case c.LastPrice > 0:
		return c.LastPrice
	case quoteMid > 0:
		return quoteMid
	default:
		return decimal.NewFromFloat(underlying).Mul(rm.premiumEstPct).InexactFloat64()
	}
}

// contracts returns min(floor(buyingPower*risk / (premium*100)), max). The
// result is never negative.
func (rm *riskManager) contracts(buyingPower, premium float64) int {
	if premium <= 0 || buyingPower <= 0 {
		return 0
	}
	maxRisk := decimal.NewFromFloat(buyingPower).Mul(rm.riskPct)
	perContract := decimal.NewFromFloat(premium).Mul(decimal.NewFromInt(contractMultiplier))
	n := maxRisk.Div(perContract).Floor().IntPart()
	if n > rm.maxContracts {
		n = rm.maxContracts
	}
	if n < 0 {
		n = 0
	}
	return int(n)
}

// cost is contracts * premium * 100, rounded to the cent.
func (rm *riskManager) cost(contracts int, premium float64) float64 {
	return decimal.NewFromInt(int64(contracts)).
		Mul(decimal.NewFromFloat(premium)).
		Mul(decimal.NewFromInt(contractMultiplier)).
		Round(2).InexactFloat64()
}

func (rm *riskManager) profitTarget(cost float64) float64 {
	return decimal.NewFromFloat(cost).Mul(rm.profitTargetUp).Round(2).InexactFloat64()
}

// positionValue is what an open trade is worth at the given premium.
func positionValue(contracts int, premium float64) float64 {
	return decimal.NewFromFloat(premium).
		Mul(decimal.NewFromInt(int64(contracts) * contractMultiplier)).
		Round(2).InexactFloat64()
}
