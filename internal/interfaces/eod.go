package interfaces

import (
	"context"
	"time"
)

// EodSummarizer turns a day's trade journal into a per-contract CSV.
type EodSummarizer interface {
	SummarizeDay(ctx context.Context, t time.Time) (csvPath string, err error)
	SummarizeToday(ctx context.Context) (csvPath string, err error)
}
