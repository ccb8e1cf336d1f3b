package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"options-signal-bot/internal/logger"
)

var ErrNoData = errors.New("no live, cached or synthetic data")

type Source string

const (
	SourceLive      Source = "live"
	SourceCache     Source = "cache"
	SourceSynthetic Source = "synthetic"
)

// Result carries fetched data and where it came from.
type Result[T any] struct {
	Data     T
	Source   Source
	StoredAt time.Time
	// LiveErr is the live failure that caused the fallback, if any.
	LiveErr error
}

// IsRealData reports whether the data came from a live fetch or a cache of
// one. Synthetic data is never real, even when served from the cache.
func (r Result[T]) IsRealData() bool {
	return r.Source != SourceSynthetic
}

// Fetcher describes one resilient fetch.
type Fetcher[T any] struct {
	// Live fetches from upstream. Required.
	Live func(ctx context.Context) (T, error)
	// Accept rejects live data that is unusable, e.g. too few bars.
	Accept func(T) error
	// Synthetic fabricates data when live and cache both fail.
	Synthetic func() T
	// CacheSynthetic stores fabricated data so later cycles reuse it.
	CacheSynthetic bool
	// Timeout bounds the live call. Zero means the caller's context only.
	Timeout time.Duration
}

// Fetch runs the three-tier fallback: live, then a fresh cache entry, then
// the synthetic generator. A successful live fetch always refreshes the
// cache. A timed-out live call is treated like any other failure.
func Fetch[T any](ctx context.Context, store *Store[T], key string, f Fetcher[T]) (Result[T], error) {
	data, err := fetchLive(ctx, f)
	if err == nil {
		store.Set(key, data, false)
		return Result[T]{Data: data, Source: SourceLive, StoredAt: time.Now()}, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		// caller cancelled; do not mask it with fallback data
		var zero T
		return Result[T]{Data: zero}, ctx.Err()
	}

	if e, ok := store.Get(key); ok {
		src := SourceCache
		if e.Synthetic {
			src = SourceSynthetic
		}
		logger.Degraded(ctx, key, string(src), err.Error(), "age_minutes", time.Since(e.Timestamp).Minutes())
		return Result[T]{Data: e.Data, Source: src, StoredAt: e.Timestamp, LiveErr: err}, nil
	}

	if f.Synthetic == nil {
		var zero T
		return Result[T]{Data: zero, LiveErr: err}, fmt.Errorf("%s: %w: %w", key, ErrNoData, err)
	}

	data = f.Synthetic()
	if f.CacheSynthetic {
		store.Set(key, data, true)
	}
	logger.Degraded(ctx, key, string(SourceSynthetic), err.Error())
	return Result[T]{Data: data, Source: SourceSynthetic, StoredAt: time.Now(), LiveErr: err}, nil
}

func fetchLive[T any](ctx context.Context, f Fetcher[T]) (T, error) {
	var zero T
	if f.Live == nil {
		return zero, errors.New("no live source")
	}
	callCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	data, err := f.Live(callCtx)
	if err != nil {
		return zero, err
	}
	if f.Accept != nil {
		if err := f.Accept(data); err != nil {
			return zero, err
		}
	}
	return data, nil
}
