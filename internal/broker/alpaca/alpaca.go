package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"options-signal-bot/internal/api"
	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

const (
	DefaultTradingURL = "https://paper-api.alpaca.markets"
	DefaultDataURL    = "https://data.alpaca.markets"

	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"
)

type Params struct {
	Mode       string
	KeyID      string
	SecretKey  string
	TradingURL string
	DataURL    string
	// ExpiryMonths centres the option-chain window: contracts expiring
	// between now+ExpiryMonths and one month after are requested.
	ExpiryMonths int
	Timeout      time.Duration
	Retry        *api.RetryConfig
}

// Alpaca implements interfaces.Broker over the Alpaca v2 trading API and the
// market-data API. In DRY_RUN mode reads go upstream but orders are simulated.
type Alpaca struct {
	p       Params
	trading *api.Client
	data    *api.Client
	now     func() time.Time
}

var _ interfaces.Broker = (*Alpaca)(nil)

func New(p Params) *Alpaca {
	if p.TradingURL == "" {
		p.TradingURL = DefaultTradingURL
	}
	if p.DataURL == "" {
		p.DataURL = DefaultDataURL
	}
	if p.Timeout == 0 {
		p.Timeout = 15 * time.Second
	}
	if p.Retry == nil {
		p.Retry = &api.RetryConfig{MaxAttempts: 2, InitialWait: 250 * time.Millisecond, MaxWait: time.Second}
	}
	return &Alpaca{
		p:       p,
		trading: newClient(p.TradingURL, p),
		data:    newClient(p.DataURL, p),
		now:     time.Now,
	}
}

func newClient(base string, p Params) *api.Client {
	return api.NewClient(
		api.WithBaseURL(strings.TrimRight(base, "/")),
		api.WithTimeout(p.Timeout),
		api.WithHeader("APCA-API-KEY-ID", p.KeyID),
		api.WithHeader("APCA-API-SECRET-KEY", p.SecretKey),
		api.WithHeader("Accept", "application/json"),
		api.WithLogging(true),
	)
}

// get decodes a GET response, retrying transient failures.
func (a *Alpaca) get(ctx context.Context, c *api.Client, path string, q url.Values, v any) error {
	req := api.NewRequest(http.MethodGet, path).WithContext(ctx).WithQuery(q)
	resp, err := c.DoWithRetry(req, a.p.Retry)
	if err != nil {
		return err
	}
	return resp.ParseJSON(v)
}

func (a *Alpaca) GetAccount(ctx context.Context) (types.Account, error) {
	var acc accountJSON
	if err := a.get(ctx, a.trading, "/v2/account", nil, &acc); err != nil {
		return types.Account{}, fmt.Errorf("get account: %w", err)
	}
	return acc.toAccount(), nil
}

func (a *Alpaca) GetPositions(ctx context.Context) ([]types.Position, error) {
	var raw []positionJSON
	if err := a.get(ctx, a.trading, "/v2/positions", nil, &raw); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	out := make([]types.Position, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.toPosition())
	}
	return out, nil
}

func (a *Alpaca) GetOrders(ctx context.Context, status string) ([]types.Order, error) {
	if status == "" {
		status = "all"
	}
	var raw []orderJSON
	if err := a.get(ctx, a.trading, "/v2/orders", url.Values{"status": {status}}, &raw); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	out := make([]types.Order, 0, len(raw))
	for _, o := range raw {
		out = append(out, o.toOrder())
	}
	return out, nil
}

func (a *Alpaca) GetPortfolioHistory(ctx context.Context, period string) (types.PortfolioHistory, error) {
	if period == "" {
		period = "1M"
	}
	var h historyJSON
	if err := a.get(ctx, a.trading, "/v2/account/portfolio/history", url.Values{"period": {period}}, &h); err != nil {
		return types.PortfolioHistory{}, fmt.Errorf("get portfolio history: %w", err)
	}
	return h.toHistory(), nil
}

func (a *Alpaca) IsMarketOpen(ctx context.Context) (bool, error) {
	var c clockJSON
	if err := a.get(ctx, a.trading, "/v2/clock", nil, &c); err != nil {
		return false, fmt.Errorf("get clock: %w", err)
	}
	return c.IsOpen, nil
}

// PlaceOptionOrder sends a market day order for an option contract. Orders
// are not retried; a timeout leaves the outcome unknown to the caller.
func (a *Alpaca) PlaceOptionOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if req.Qty <= 0 {
		return types.OrderResp{}, fmt.Errorf("order qty must be positive, got %d", req.Qty)
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return types.OrderResp{}, fmt.Errorf("order side must be buy or sell, got %q", req.Side)
	}

	if a.p.Mode != ModeLive {
		resp := types.OrderResp{OrderID: "SIM-" + uuid.NewString(), Status: "simulated", Message: "dry-run"}
		logger.Info(ctx, "Simulated order placed", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "order_id", resp.OrderID)
		return resp, nil
	}

	body := orderRequestJSON{
		Symbol:      req.Symbol,
		Qty:         strconv.Itoa(req.Qty),
		Side:        req.Side,
		Type:        "market",
		TimeInForce: "day",
	}
	if req.Tag != "" {
		body.ClientID = req.Tag + "-" + uuid.NewString()
	}
	resp, err := a.trading.POST(ctx, "/v2/orders", body)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("place order %s: %w", req.Symbol, err)
	}
	var o orderJSON
	if err := resp.ParseJSON(&o); err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: o.ID, Status: o.Status}, nil
}
