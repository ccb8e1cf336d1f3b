package alert

import (
	"fmt"
	"strings"
	"time"

	"options-signal-bot/internal/types"
)

// maxMessageLen is Telegram's limit on message text.
const maxMessageLen = 4096

func FormatTradingAlert(subject, message string, d *types.TradeDetails, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s\n\n%s", subject, message)
	if d != nil {
		b.WriteString("\n\n=== TRADE DETAILS ===\n")
		fmt.Fprintf(&b, "Symbol: %s\n", d.Symbol)
		fmt.Fprintf(&b, "Contract: %s\n", d.OptionSymbol)
		fmt.Fprintf(&b, "Type: %s\n", strings.ToUpper(d.OptionType))
		fmt.Fprintf(&b, "Strike: %.2f\n", d.Strike)
		fmt.Fprintf(&b, "Expiration: %s\n", d.Expiration.Format("2006-01-02"))
		fmt.Fprintf(&b, "Contracts: %d\n", d.Contracts)
		fmt.Fprintf(&b, "Premium: $%.2f\n", d.Premium)
		fmt.Fprintf(&b, "Total Cost: $%.2f\n", d.TotalCost)
		fmt.Fprintf(&b, "Profit Target: $%.2f\n", d.ProfitTarget)
		fmt.Fprintf(&b, "Confidence: %.1f%%\n", d.Confidence*100)
		fmt.Fprintf(&b, "Scores: technical %.2f, news %+.2f, trending %+.2f\n", d.Scores.Technical, d.Scores.News, d.Scores.Trending)
		if d.OrderID != "" {
			fmt.Fprintf(&b, "Order: %s\n", d.OrderID)
		}
		if !d.IsRealData {
			src := d.PriceSource
			if src == "" {
				src = "unknown"
			}
			fmt.Fprintf(&b, "⚠️ DEGRADED DATA: decision used non-live inputs (price source: %s)\n", src)
		}
	}
	fmt.Fprintf(&b, "\nTime: %s", now.Format(time.RFC1123))
	return truncate(b.String())
}

func FormatEmergencyAlert(subject, message string, cause error, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 URGENT: %s\n\n%s\n", subject, message)
	if cause != nil {
		fmt.Fprintf(&b, "\nError: %v\n", cause)
	}
	fmt.Fprintf(&b, "\nTime: %s\nPlease check the trading bot.", now.Format(time.RFC1123))
	return truncate(b.String())
}

func FormatDailyReport(perf types.Performance, trades []types.ActiveTrade, errs []string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Daily Trading Report - %s\n\n", now.Format("2006-01-02"))
	b.WriteString("Performance Summary:\n")
	fmt.Fprintf(&b, "- Total Equity: $%.2f\n", perf.TotalEquity)
	fmt.Fprintf(&b, "- Day P&L: $%.2f\n", perf.DayChange)
	fmt.Fprintf(&b, "- Realized P&L: $%.2f\n", perf.RealizedPL)
	fmt.Fprintf(&b, "- Total Trades: %d\n", perf.TotalTrades)
	fmt.Fprintf(&b, "- Open Trades: %d\n", perf.OpenTrades)
	fmt.Fprintf(&b, "- Buying Power: $%.2f\n", perf.BuyingPower)

	fmt.Fprintf(&b, "\nRecent Trades: %d\n", len(trades))
	for _, t := range trades {
		fmt.Fprintf(&b, "- %s %s %.2f x%d %s", t.Symbol, strings.ToUpper(t.OptionType), t.Strike, t.Contracts, t.Status)
		if t.Status == types.TradeClosed {
			fmt.Fprintf(&b, " (%s, exit $%.2f)", t.CloseReason, t.ExitValue)
		}
		b.WriteString("\n")
	}

	if len(perf.MarketHeadlines) > 0 {
		b.WriteString("\nMarket Headlines:\n")
		for _, h := range perf.MarketHeadlines {
			fmt.Fprintf(&b, "- [%s] %s\n", h.Sentiment, h.Headline)
		}
	}

	fmt.Fprintf(&b, "Errors Today: %d\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	return truncate(b.String())
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen - len("\n…")
	// avoid splitting a multi-byte rune
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
