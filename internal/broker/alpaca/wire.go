package alpaca

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"options-signal-bot/internal/types"
)

// num decodes Alpaca's decimal strings ("123.45"), bare numbers and null.
type num float64

func (n *num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = num(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = num(f)
	return nil
}

type accountJSON struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	BuyingPower num    `json:"buying_power"`
	Equity      num    `json:"equity"`
	Cash        num    `json:"cash"`
}

func (a accountJSON) toAccount() types.Account {
	return types.Account{
		ID:          a.ID,
		Status:      a.Status,
		BuyingPower: float64(a.BuyingPower),
		Equity:      float64(a.Equity),
		Cash:        float64(a.Cash),
	}
}

type positionJSON struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Qty           num    `json:"qty"`
	AvgEntryPrice num    `json:"avg_entry_price"`
	MarketValue   num    `json:"market_value"`
	UnrealizedPL  num    `json:"unrealized_pl"`
	AssetClass    string `json:"asset_class"`
}

func (p positionJSON) toPosition() types.Position {
	return types.Position{
		Symbol:        p.Symbol,
		Side:          p.Side,
		Qty:           float64(p.Qty),
		AvgEntryPrice: float64(p.AvgEntryPrice),
		MarketValue:   float64(p.MarketValue),
		UnrealizedPL:  float64(p.UnrealizedPL),
		AssetClass:    p.AssetClass,
	}
}

type orderJSON struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Qty            num       `json:"qty"`
	FilledQty      num       `json:"filled_qty"`
	FilledAvgPrice num       `json:"filled_avg_price"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func (o orderJSON) toOrder() types.Order {
	return types.Order{
		ID:          o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Qty:         float64(o.Qty),
		FilledQty:   float64(o.FilledQty),
		FilledPrice: float64(o.FilledAvgPrice),
		Status:      o.Status,
		SubmittedAt: o.SubmittedAt,
	}
}

type orderRequestJSON struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	ClientID    string `json:"client_order_id,omitempty"`
}

type historyJSON struct {
	Timestamp  []int64 `json:"timestamp"`
	Equity     []num   `json:"equity"`
	ProfitLoss []num   `json:"profit_loss"`
}

func (h historyJSON) toHistory() types.PortfolioHistory {
	out := types.PortfolioHistory{
		Timestamps: make([]time.Time, len(h.Timestamp)),
		Equity:     make([]float64, len(h.Equity)),
		ProfitLoss: make([]float64, len(h.ProfitLoss)),
	}
	for i, ts := range h.Timestamp {
		out.Timestamps[i] = time.Unix(ts, 0).UTC()
	}
	for i, e := range h.Equity {
		out.Equity[i] = float64(e)
	}
	for i, p := range h.ProfitLoss {
		out.ProfitLoss[i] = float64(p)
	}
	return out
}

type barJSON struct {
	T time.Time `json:"t"`
	O num       `json:"o"`
	H num       `json:"h"`
	L num       `json:"l"`
	C num       `json:"c"`
	V num       `json:"v"`
}

func (b barJSON) toBar() types.PriceBar {
	return types.PriceBar{
		Ts:     b.T,
		Open:   float64(b.O),
		High:   float64(b.H),
		Low:    float64(b.L),
		Close:  float64(b.C),
		Volume: float64(b.V),
	}
}

type quoteJSON struct {
	T  time.Time `json:"t"`
	AP num       `json:"ap"`
	AS num       `json:"as"`
	BP num       `json:"bp"`
	BS num       `json:"bs"`
}

func (q quoteJSON) toQuote(symbol string) types.Quote {
	return types.Quote{
		Symbol:  symbol,
		BidPx:   float64(q.BP),
		AskPx:   float64(q.AP),
		BidSize: float64(q.BS),
		AskSize: float64(q.AS),
		Ts:      q.T,
	}
}

type contractJSON struct {
	Symbol           string `json:"symbol"`
	UnderlyingSymbol string `json:"underlying_symbol"`
	Type             string `json:"type"`
	StrikePrice      num    `json:"strike_price"`
	ExpirationDate   string `json:"expiration_date"`
	ClosePrice       num    `json:"close_price"`
	Tradable         bool   `json:"tradable"`
}

func (c contractJSON) toContract() (types.OptionContract, bool) {
	exp, err := time.Parse("2006-01-02", c.ExpirationDate)
	if err != nil {
		return types.OptionContract{}, false
	}
	return types.OptionContract{
		Symbol:     c.Symbol,
		Underlying: c.UnderlyingSymbol,
		Type:       c.Type,
		Strike:     float64(c.StrikePrice),
		Expiration: exp,
		LastPrice:  float64(c.ClosePrice),
	}, true
}

type clockJSON struct {
	IsOpen bool `json:"is_open"`
}
