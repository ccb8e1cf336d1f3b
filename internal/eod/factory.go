package eod

import (
	"time"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/tradelog"
)

// NewSummarizer summarizes the journal's days.
func NewSummarizer(journal *tradelog.Journal) interfaces.EodSummarizer {
	return &eodSummarizer{journal: journal}
}

// Realized returns the dollar P&L of matched round trips on day t.
func Realized(journal *tradelog.Journal, t time.Time) (float64, error) {
	entries, err := journal.ReadTrades(t)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range aggregate(entries) {
		total += r.RealizedPnL
	}
	return total, nil
}
