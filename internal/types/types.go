package types

import "time"

// PriceBar is one OHLCV session for a symbol. Sequences are chronological.
type PriceBar struct {
	Ts                             time.Time
	Open, High, Low, Close, Volume float64
}

type MACD struct {
	Value  float64 `json:"value"`
	Signal float64 `json:"signal"`
}

type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// Snapshot holds indicator values at the latest bar.
type Snapshot struct {
	Price      float64    `json:"price"`
	SMA20      float64    `json:"sma20"`
	SMA50      float64    `json:"sma50"`
	EMA12      float64    `json:"ema12"`
	EMA26      float64    `json:"ema26"`
	RSI        float64    `json:"rsi"`
	MACD       MACD       `json:"macd"`
	Bollinger  Bollinger  `json:"bollinger"`
	Stochastic Stochastic `json:"stochastic"`
	Volume     float64    `json:"volume"`
	AvgVolume  float64    `json:"avg_volume"`
	HistVol    float64    `json:"hist_volatility"`
}

const (
	Buy  = "buy"
	Sell = "sell"
	Hold = "hold"
)

type Signal struct {
	Trend            string   `json:"trend"`
	Momentum         string   `json:"momentum"`
	Volatility       string   `json:"volatility"`
	VolumeState      string   `json:"volume_state"`
	OverallDirection string   `json:"overall_direction"`
	BullishVotes     float64  `json:"bullish_votes"`
	BearishVotes     float64  `json:"bearish_votes"`
	Strength         int      `json:"strength"`
	Recommendation   string   `json:"recommendation"`
	Notes            []string `json:"notes,omitempty"`
}

// Article is the single normalized news shape used downstream of ingestion.
type Article struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Symbols     []string  `json:"symbols,omitempty"`
}

const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

type ScoredArticle struct {
	Article
	Sentiment       string   `json:"sentiment"`
	SentimentScore  float64  `json:"sentiment_score"`
	DetectedSymbols []string `json:"detected_symbols"`
	TradingImpact   string   `json:"trading_impact"`
}

type NewsImpact struct {
	Symbol         string          `json:"symbol"`
	Sentiment      string          `json:"sentiment"`
	Score          float64         `json:"score"`
	ArticleCount   int             `json:"article_count"`
	RecentArticles []ScoredArticle `json:"recent_articles"`
	IsRealData     bool            `json:"is_real_data"`
	Source         string          `json:"source"`
}

const (
	ActionBuy        = "buy"
	ActionSell       = "sell"
	ActionHold       = "hold"
	ActionCloseLong  = "close_long"
	ActionCloseShort = "close_short"

	OptionCall = "call"
	OptionPut  = "put"
)

type Scores struct {
	Technical float64 `json:"technical"`
	News      float64 `json:"news"`
	Trending  float64 `json:"trending"`
}

type Opportunity struct {
	Symbol        string     `json:"symbol"`
	Action        string     `json:"action"`
	OptionType    string     `json:"option_type,omitempty"`
	Confidence    float64    `json:"confidence"`
	CombinedScore float64    `json:"combined_score"`
	Scores        Scores     `json:"scores"`
	Price         float64    `json:"price"`
	Signal        Signal     `json:"signal"`
	News          NewsImpact `json:"news"`
	Trending      bool       `json:"trending"`
	// PriceSource is the cache source the bars were served from.
	PriceSource   string     `json:"price_source,omitempty"`
	// IsRealData is false when either the bars or the news were synthetic.
	IsRealData    bool       `json:"is_real_data"`
}

type Position struct {
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Qty           float64 `json:"qty"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
	AssetClass    string  `json:"asset_class"`
}

const (
	TradeActive = "active"
	TradeClosed = "closed"
)

type ActiveTrade struct {
	OrderID      string    `json:"order_id"`
	Symbol       string    `json:"symbol"`
	OptionSymbol string    `json:"option_symbol"`
	OptionType   string    `json:"option_type"`
	Strike       float64   `json:"strike"`
	Expiration   time.Time `json:"expiration"`
	Contracts    int       `json:"contracts"`
	EntryPrice   float64   `json:"entry_price"`
	TotalCost    float64   `json:"total_cost"`
	ProfitTarget float64   `json:"profit_target"`
	EntryDate    time.Time `json:"entry_date"`
	Status       string    `json:"status"`
	CloseReason  string    `json:"close_reason,omitempty"`
	ExitValue    float64   `json:"exit_value,omitempty"`
	ClosedAt     time.Time `json:"closed_at,omitempty"`
}

type OptionContract struct {
	Symbol     string    `json:"symbol"`
	Underlying string    `json:"underlying"`
	Type       string    `json:"type"`
	Strike     float64   `json:"strike"`
	Expiration time.Time `json:"expiration"`
	LastPrice  float64   `json:"last_price"`
}

type Account struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	BuyingPower float64 `json:"buying_power"`
	Equity      float64 `json:"equity"`
	Cash        float64 `json:"cash"`
}

type Quote struct {
	Symbol  string    `json:"symbol"`
	BidPx   float64   `json:"bid_price"`
	AskPx   float64   `json:"ask_price"`
	BidSize float64   `json:"bid_size"`
	AskSize float64   `json:"ask_size"`
	Ts      time.Time `json:"ts"`
}

// Mid returns the bid/ask midpoint, or whichever side is quoted.
func (q Quote) Mid() float64 {
	switch {
	case q.BidPx > 0 && q.AskPx > 0:
		return (q.BidPx + q.AskPx) / 2
	case q.AskPx > 0:
		return q.AskPx
	default:
		return q.BidPx
	}
}

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

type OrderReq struct {
	Symbol string
	Qty    int
	Side   string
	Tag    string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Order struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Qty         float64   `json:"qty"`
	FilledQty   float64   `json:"filled_qty"`
	FilledPrice float64   `json:"filled_avg_price"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type PortfolioHistory struct {
	Timestamps []time.Time `json:"timestamps"`
	Equity     []float64   `json:"equity"`
	ProfitLoss []float64   `json:"profit_loss"`
}

type Performance struct {
	TotalEquity float64 `json:"total_equity"`
	DayChange   float64 `json:"day_change"`
	TotalTrades int     `json:"total_trades"`
	BuyingPower float64 `json:"buying_power"`
	RealizedPL  float64 `json:"realized_pl"`
	OpenTrades  int     `json:"open_trades"`

	// MarketHeadlines is only filled for the daily report.
	MarketHeadlines []ScoredArticle `json:"market_headlines,omitempty"`
}

type WatchlistItem struct {
	Symbol     string   `json:"symbol"`
	Price      float64  `json:"price"`
	Change     float64  `json:"change"`
	Volume     float64  `json:"volume"`
	News       *Article `json:"news,omitempty"`
	IsTrending bool     `json:"is_trending"`
}

type TrendingItem struct {
	Symbol       string  `json:"symbol"`
	Price        float64 `json:"price"`
	PriceChange  float64 `json:"price_change_pct"`
	Volume       float64 `json:"volume"`
	VolumeRatio  float64 `json:"volume_ratio"`
	Reason       string  `json:"reason"`
	OptionsCount int     `json:"options_count"`
}

// TradeDetails is the alert payload for a newly opened trade.
type TradeDetails struct {
	Symbol       string    `json:"symbol"`
	OptionSymbol string    `json:"option_symbol"`
	OptionType   string    `json:"option_type"`
	Strike       float64   `json:"strike"`
	Expiration   time.Time `json:"expiration"`
	Contracts    int       `json:"contracts"`
	Premium      float64   `json:"premium"`
	TotalCost    float64   `json:"total_cost"`
	ProfitTarget float64   `json:"profit_target"`
	Confidence   float64   `json:"confidence"`
	Scores       Scores    `json:"scores"`
	OrderID      string    `json:"order_id"`
	PriceSource  string    `json:"price_source,omitempty"`
	IsRealData   bool      `json:"is_real_data"`
}

// CycleResult summarizes one strategy cycle.
type CycleResult struct {
	CycleID       string        `json:"cycle_id"`
	Skipped       string        `json:"skipped,omitempty"`
	Analyzed      int           `json:"analyzed"`
	Opportunities []Opportunity `json:"opportunities"`
	Executed      []OrderResp   `json:"executed"`
	Closed        []string      `json:"closed"`
	Errors        []string      `json:"errors"`
	PriceSource   string        `json:"price_source"`
	NewsSource    string        `json:"news_source"`
}
