package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"options-signal-bot/internal/api"
	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/types"
)

const DefaultFinvizURL = "https://finviz.com"

var _ interfaces.NewsClient = (*Scraper)(nil)

// Scraper reads headline tables from finviz quote pages. It is the fallback
// news source when the Alpaca feed is unavailable.
type Scraper struct {
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

func NewScraper(baseURL string, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultFinvizURL
	}
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *Scraper) GetStockNews(ctx context.Context, symbol string, limit int) ([]types.Article, error) {
	articles, err := s.scrape(ctx, "/quote.ashx?t="+url.QueryEscape(strings.ToUpper(symbol)), "table#news-table tr", limit)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		articles[i].Symbols = []string{strings.ToUpper(symbol)}
	}
	return articles, nil
}

func (s *Scraper) GetMarketNews(ctx context.Context, limit int) ([]types.Article, error) {
	return s.scrape(ctx, "/news.ashx", "table#news-table tr", limit)
}

func (s *Scraper) scrape(ctx context.Context, path, rowSelector string, limit int) ([]types.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var articles []types.Article
	// finviz prints the date once per day; later rows only carry a time.
	var day time.Time

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(s.baseURL)),
		colly.MaxDepth(1),
	)
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		for k, v := range api.BrowserHeaders() {
			r.Headers.Set(k, v)
		}
	})

	c.OnHTML(rowSelector, func(e *colly.HTMLElement) {
		if limit > 0 && len(articles) >= limit {
			return
		}
		link := e.DOM.Find("a").First()
		headline := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if headline == "" || href == "" {
			return
		}

		var published time.Time
		published, day = parseFinvizStamp(strings.TrimSpace(e.DOM.Find("td").First().Text()), day, s.now())

		articles = append(articles, types.Article{
			Headline:    headline,
			URL:         e.Request.AbsoluteURL(href),
			Source:      sourceName(e.DOM),
			PublishedAt: published,
		})
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		logger.Warn(ctx, "Scraping error", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	target := s.baseURL + path
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", target, err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("scrape %s: %w", target, visitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "News scraping completed", "url", target, "articles", len(articles))
	return articles, nil
}

func sourceName(row *goquery.Selection) string {
	if src := strings.TrimSpace(row.Find("div.news-link-right span").First().Text()); src != "" {
		return strings.Trim(src, "()")
	}
	return "finviz"
}

// parseFinvizStamp reads "Jan-02-06 03:04PM", "Today 03:04PM" or a bare
// "03:04PM" that belongs to the previous dated row.
func parseFinvizStamp(raw string, day, now time.Time) (time.Time, time.Time) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 2:
		if strings.EqualFold(fields[0], "today") {
			day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else if d, err := time.ParseInLocation("Jan-02-06", fields[0], now.Location()); err == nil {
			day = d
		}
		return atClock(day, fields[1]), day
	case 1:
		return atClock(day, fields[0]), day
	default:
		return time.Time{}, day
	}
}

func atClock(day time.Time, clock string) time.Time {
	if day.IsZero() {
		return time.Time{}
	}
	t, err := time.Parse("03:04PM", clock)
	if err != nil {
		return day
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
