package eodobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/trace"
)

type observableSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableSummarizer{summarizer: summarizer}
}

func (o *observableSummarizer) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	day := t.Format("2006-01-02")
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeDay")
	defer span.End()
	span.SetAttributes(attribute.String("day", day))

	start := time.Now()
	csvPath, err := o.summarizer.SummarizeDay(ctx, t)
	return o.finish(ctx, span, day, csvPath, err, start)
}

func (o *observableSummarizer) SummarizeToday(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeToday")
	defer span.End()

	start := time.Now()
	csvPath, err := o.summarizer.SummarizeToday(ctx)
	return o.finish(ctx, span, "today", csvPath, err, start)
}

func (o *observableSummarizer) finish(ctx context.Context, span oteltrace.Span, day, csvPath string, err error, start time.Time) (string, error) {
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorWithErrSkip(ctx, 2, "EOD summary failed", err, "day", day, "duration_ms", elapsed)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 2, "No trades to summarize", "day", day)
		return "", nil
	}
	span.SetAttributes(attribute.String("csv_path", csvPath))
	logger.InfoSkip(ctx, 2, "EOD summary written", "day", day, "csv_path", csvPath, "duration_ms", elapsed)
	return csvPath, nil
}
