package engine

import (
	"testing"
	"time"

	"options-signal-bot/internal/types"
)

func TestPositionManagerAddAndClose(t *testing.T) {
	pm := newPositionManager()
	t1 := types.ActiveTrade{OrderID: "a", Symbol: "AAPL", TotalCost: 500, EntryDate: testNow, Status: types.TradeActive}
	t2 := types.ActiveTrade{OrderID: "b", Symbol: "MSFT", TotalCost: 300, EntryDate: testNow.Add(-time.Hour), Status: types.TradeActive}

	if !pm.add(t1) || !pm.add(t2) {
		t.Fatal("expected both trades to be added")
	}
	dup := t1
	dup.TotalCost = 1
	if pm.add(dup) {
		t.Error("duplicate order id must be rejected")
	}

	active := pm.active()
	if len(active) != 2 || active[0].OrderID != "b" {
		t.Fatalf("expected trades ordered by entry time, got %+v", active)
	}
	if active[1].TotalCost != 500 {
		t.Errorf("duplicate add overwrote the trade: %+v", active[1])
	}

	if !pm.close("a", CloseProfitTarget, 575.5, testNow) {
		t.Fatal("close should succeed")
	}
	if pm.close("a", CloseProfitTarget, 600, testNow) {
		t.Error("closing twice must fail")
	}
	if pm.close("missing", CloseProfitTarget, 1, testNow) {
		t.Error("closing an unknown trade must fail")
	}
	if got := pm.realizedPL(); got != 75.5 {
		t.Errorf("realized = %.2f, want 75.50", got)
	}
	if pm.openCount() != 1 || len(pm.activeOn("AAPL")) != 0 || len(pm.activeOn("MSFT")) != 1 {
		t.Error("unexpected open trades after close")
	}

	all := pm.all()
	if len(all) != 2 || all[1].Status != types.TradeClosed || !all[1].ClosedAt.Equal(testNow) {
		t.Errorf("closed trade not recorded: %+v", all)
	}
}

func TestPositionManagerReturnsCopies(t *testing.T) {
	pm := newPositionManager()
	pm.add(types.ActiveTrade{OrderID: "a", Symbol: "AAPL", Status: types.TradeActive})
	got := pm.active()
	got[0].Status = types.TradeClosed
	if pm.openCount() != 1 {
		t.Error("mutating a returned trade must not affect the tracker")
	}
}

func TestPositionManagerPositions(t *testing.T) {
	pm := newPositionManager()
	pm.replacePositions([]types.Position{{Symbol: "AAPL", Qty: 10}, {Symbol: "TSLA", Qty: -5, Side: "short"}})
	if pm.positionCount() != 2 {
		t.Fatalf("expected 2 positions, got %d", pm.positionCount())
	}
	if p := pm.exposure("TSLA"); p == nil || p.Side != "short" {
		t.Errorf("unexpected TSLA position %+v", p)
	}

	pm.replacePositions([]types.Position{{Symbol: "MSFT", Qty: 1}})
	if pm.exposure("AAPL") != nil {
		t.Error("replace must drop positions no longer held")
	}
}

func TestPositionManagerExposure(t *testing.T) {
	tests := []struct {
		name      string
		positions []types.Position
		trades    []types.ActiveTrade
		side      string
		qty       float64
	}{
		{
			name:   "tracked call is long",
			trades: []types.ActiveTrade{{OrderID: "a", Symbol: "AAPL", OptionType: types.OptionCall, Contracts: 5, Status: types.TradeActive}},
			side:   "long",
			qty:    5,
		},
		{
			name:   "tracked put is short",
			trades: []types.ActiveTrade{{OrderID: "a", Symbol: "AAPL", OptionType: types.OptionPut, Contracts: 3, Status: types.TradeActive}},
			side:   "short",
			qty:    -3,
		},
		{
			name:      "tracked trade wins over the stock",
			positions: []types.Position{{Symbol: "AAPL", Side: "long", Qty: 100}},
			trades:    []types.ActiveTrade{{OrderID: "a", Symbol: "AAPL", OptionType: types.OptionPut, Contracts: 1, Status: types.TradeActive}},
			side:      "short",
			qty:       -1,
		},
		{
			name:      "stock position",
			positions: []types.Position{{Symbol: "AAPL", Side: "short", Qty: -20}},
			side:      "short",
			qty:       -20,
		},
		{
			name:      "held call contract",
			positions: []types.Position{{Symbol: aaplCall110, Side: "long", Qty: 5, AssetClass: "us_option"}},
			side:      "long",
			qty:       5,
		},
		{
			name:      "held put contract",
			positions: []types.Position{{Symbol: "AAPL270618P00110000", Side: "long", Qty: 2, AssetClass: "us_option"}},
			side:      "short",
			qty:       -2,
		},
		{
			name:      "written put contract",
			positions: []types.Position{{Symbol: "AAPL270618P00110000", Side: "short", Qty: -2, AssetClass: "us_option"}},
			side:      "long",
			qty:       2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := newPositionManager()
			pm.replacePositions(tt.positions)
			for _, tr := range tt.trades {
				pm.add(tr)
			}
			p := pm.exposure("AAPL")
			if p == nil {
				t.Fatal("expected an exposure")
			}
			if p.Side != tt.side || p.Qty != tt.qty {
				t.Errorf("exposure = %s %.0f, want %s %.0f", p.Side, p.Qty, tt.side, tt.qty)
			}
		})
	}
}

func TestPositionManagerExposureIgnoresOtherUnderlyings(t *testing.T) {
	pm := newPositionManager()
	pm.replacePositions([]types.Position{
		{Symbol: "AAPLX270618C00110000", Side: "long", Qty: 1},
		{Symbol: "MSFT270618C00400000", Side: "long", Qty: 1},
	})
	pm.add(types.ActiveTrade{OrderID: "a", Symbol: "AAPL", OptionType: types.OptionCall, Contracts: 1, Status: types.TradeClosed})
	if p := pm.exposure("AAPL"); p != nil {
		t.Errorf("expected no AAPL exposure, got %+v", p)
	}
}

func TestParseContractSymbol(t *testing.T) {
	tests := []struct {
		in, underlying, typ string
		ok                  bool
	}{
		{aaplCall110, "AAPL", types.OptionCall, true},
		{"SPY261218P00450000", "SPY", types.OptionPut, true},
		{"AAPL", "", "", false},
		{"AAPL270618X00110000", "", "", false},
		{"AAPL27061AC00110000", "", "", false},
	}
	for _, tt := range tests {
		u, typ, ok := parseContractSymbol(tt.in)
		if u != tt.underlying || typ != tt.typ || ok != tt.ok {
			t.Errorf("parseContractSymbol(%q) = %q, %q, %v", tt.in, u, typ, ok)
		}
	}
}
