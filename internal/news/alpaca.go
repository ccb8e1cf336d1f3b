package news

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"options-signal-bot/internal/api"
	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

const (
	DefaultAlpacaNewsURL = "https://data.alpaca.markets"
	DefaultNewsAPIURL    = "https://newsapi.org"
)

var _ interfaces.NewsClient = (*AlpacaNews)(nil)

// AlpacaNews reads the Alpaca news feed. Market-wide headlines come from
// newsapi.org when a key is configured, falling back to Alpaca.
type AlpacaNews struct {
	alpaca     *api.Client
	newsAPI    *api.Client
	newsAPIKey string
}

type AlpacaNewsConfig struct {
	BaseURL    string
	KeyID      string
	SecretKey  string
	NewsAPIURL string
	NewsAPIKey string
	Timeout    time.Duration
}

func NewAlpacaNews(cfg AlpacaNewsConfig) *AlpacaNews {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAlpacaNewsURL
	}
	if cfg.NewsAPIURL == "" {
		cfg.NewsAPIURL = DefaultNewsAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &AlpacaNews{
		alpaca: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
			api.WithTimeout(cfg.Timeout),
			api.WithHeader("APCA-API-KEY-ID", cfg.KeyID),
			api.WithHeader("APCA-API-SECRET-KEY", cfg.SecretKey),
			api.WithLogging(true),
		),
		newsAPI: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.NewsAPIURL, "/")),
			api.WithTimeout(cfg.Timeout),
		),
		newsAPIKey: cfg.NewsAPIKey,
	}
}

type alpacaNewsItem struct {
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Symbols   []string  `json:"symbols"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (c *AlpacaNews) GetStockNews(ctx context.Context, symbol string, limit int) ([]types.Article, error) {
	return c.fetch(ctx, []string{symbol}, limit)
}

func (c *AlpacaNews) GetMarketNews(ctx context.Context, limit int) ([]types.Article, error) {
	if c.newsAPIKey == "" {
		return c.fetch(ctx, nil, limit)
	}
	articles, err := c.topHeadlines(ctx, limit)
	if err != nil {
		logger.Warn(ctx, "newsapi headlines failed, using Alpaca feed", "error", err)
		return c.fetch(ctx, nil, limit)
	}
	return articles, nil
}

func (c *AlpacaNews) fetch(ctx context.Context, symbols []string, limit int) ([]types.Article, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "desc")
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}

	var body struct {
		News []alpacaNewsItem `json:"news"`
	}
	if err := c.alpaca.GetJSON(ctx, "/v1beta1/news", q, &body); err != nil {
		return nil, err
	}

	out := make([]types.Article, 0, len(body.News))
	for _, n := range body.News {
		out = append(out, types.Article{
			Headline:    n.Headline,
			Summary:     n.Summary,
			URL:         n.URL,
			Source:      n.Source,
			PublishedAt: n.CreatedAt,
			Symbols:     n.Symbols,
		})
	}
	return out, nil
}

func (c *AlpacaNews) topHeadlines(ctx context.Context, limit int) ([]types.Article, error) {
	q := url.Values{}
	q.Set("category", "business")
	q.Set("country", "us")
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("apiKey", c.newsAPIKey)

	var body struct {
		Status   string           `json:"status"`
		Message  string           `json:"message"`
		Articles []newsAPIArticle `json:"articles"`
	}
	if err := c.newsAPI.GetJSON(ctx, "/v2/top-headlines", q, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, errors.New("newsapi: " + body.Message)
	}

	out := make([]types.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		out = append(out, types.Article{
			Headline:    a.Title,
			Summary:     a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}
