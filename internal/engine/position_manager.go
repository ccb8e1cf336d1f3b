package engine

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"options-signal-bot/internal/types"
)

// positionManager owns the bot's ActiveTrades keyed by order id and mirrors
// the brokerage positions keyed by symbol.
type positionManager struct {
	mu        sync.RWMutex
	trades    map[string]*types.ActiveTrade
	positions map[string]types.Position
	realized  decimal.Decimal
}

func newPositionManager() *positionManager {
	return &positionManager{
		trades:    make(map[string]*types.ActiveTrade),
		positions: make(map[string]types.Position),
	}
}

// replacePositions swaps in a fresh brokerage snapshot.
func (pm *positionManager) replacePositions(ps []types.Position) {
	m := make(map[string]types.Position, len(ps))
	for _, p := range ps {
		m[p.Symbol] = p
	}
	pm.mu.Lock()
	pm.positions = m
	pm.mu.Unlock()
}

// exposure is the position that gates new trades on an underlying. The bot's
// own tracked trades come first: a long call counts as long and a long put as
// short. Otherwise a brokerage stock position on the symbol is used, and then
// any option position whose contract is written on it.
func (pm *positionManager) exposure(symbol string) *types.Position {
	if trades := pm.activeOn(symbol); len(trades) > 0 {
		t := trades[0]
		side, qty := "long", 0.0
		if t.OptionType == types.OptionPut {
			side = "short"
		}
		for _, tr := range trades {
			if tr.OptionType == t.OptionType {
				qty += float64(tr.Contracts)
			}
		}
		if side == "short" {
			qty = -qty
		}
		return &types.Position{Symbol: symbol, Side: side, Qty: qty, AssetClass: "us_option"}
	}

	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if p, ok := pm.positions[symbol]; ok {
		return &p
	}
	syms := make([]string, 0, len(pm.positions))
	for s := range pm.positions {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	for _, s := range syms {
		underlying, typ, ok := parseContractSymbol(s)
		if !ok || underlying != symbol {
			continue
		}
		p := pm.positions[s]
		held := p.Side != "short" && p.Qty > 0
		// a held call or a written put is long the underlying
		if (typ == types.OptionCall) == held {
			p.Side, p.Qty = "long", math.Abs(p.Qty)
		} else {
			p.Side, p.Qty = "short", -math.Abs(p.Qty)
		}
		return &p
	}
	return nil
}

// parseContractSymbol splits an OCC option symbol such as
// AAPL270618C00110000 into its underlying and option type.
func parseContractSymbol(s string) (underlying, optionType string, ok bool) {
	const tail = 15 // yymmdd + C/P + 8-digit strike
	if len(s) <= tail {
		return "", "", false
	}
	root, rest := s[:len(s)-tail], s[len(s)-tail:]
	for i, c := range rest {
		if i == 6 {
			continue
		}
		if c < '0' || c > '9' {
			return "", "", false
		}
	}
	switch rest[6] {
	case 'C':
		optionType = types.OptionCall
	case 'P':
		optionType = types.OptionPut
	default:
		return "", "", false
	}
	return strings.TrimSpace(root), optionType, true
}

func (pm *positionManager) positionCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.positions)
}

// add registers a new trade. It reports false if the order id is already
// tracked, leaving the existing trade untouched.
func (pm *positionManager) add(t types.ActiveTrade) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if _, dup := pm.trades[t.OrderID]; dup {
		return false
	}
	pm.trades[t.OrderID] = &t
	return true
}

// active returns copies of the open trades ordered by entry time.
func (pm *positionManager) active() []types.ActiveTrade {
	return pm.filter(func(t *types.ActiveTrade) bool { return t.Status == types.TradeActive })
}

func (pm *positionManager) all() []types.ActiveTrade {
	return pm.filter(func(*types.ActiveTrade) bool { return true })
}

// activeOn returns the open trades on one underlying.
func (pm *positionManager) activeOn(symbol string) []types.ActiveTrade {
	return pm.filter(func(t *types.ActiveTrade) bool {
		return t.Status == types.TradeActive && t.Symbol == symbol
	})
}

func (pm *positionManager) filter(keep func(*types.ActiveTrade) bool) []types.ActiveTrade {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]types.ActiveTrade, 0, len(pm.trades))
	for _, t := range pm.trades {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	return out
}

// close marks a trade closed at exitValue and books the realized P&L. It
// reports false if the trade is unknown or already closed.
func (pm *positionManager) close(orderID, reason string, exitValue float64, at time.Time) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	t, ok := pm.trades[orderID]
	if !ok || t.Status != types.TradeActive {
		return false
	}
	t.Status = types.TradeClosed
	t.CloseReason = reason
	t.ExitValue = exitValue
	t.ClosedAt = at
	pm.realized = pm.realized.Add(decimal.NewFromFloat(exitValue).Sub(decimal.NewFromFloat(t.TotalCost)))
	return true
}

func (pm *positionManager) realizedPL() float64 {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.realized.Round(2).InexactFloat64()
}

func (pm *positionManager) openCount() int {
	return len(pm.active())
}
