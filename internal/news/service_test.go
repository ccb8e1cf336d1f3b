package news

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"options-signal-bot/internal/types"
)

type fakeClient struct {
	articles  map[string][]types.Article
	errs      map[string]error
	market    []types.Article
	marketErr error

	inFlight int32
	maxSeen  int32
	mu       sync.Mutex
	calls    []string
}

func (f *fakeClient) GetStockNews(ctx context.Context, symbol string, limit int) ([]types.Article, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		old := atomic.LoadInt32(&f.maxSeen)
		if n <= old || atomic.CompareAndSwapInt32(&f.maxSeen, old, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.articles[symbol], nil
}

func (f *fakeClient) GetMarketNews(ctx context.Context, limit int) ([]types.Article, error) {
	return f.market, f.marketErr
}

func TestImpactPartialFailure(t *testing.T) {
	client := &fakeClient{
		articles: map[string][]types.Article{
			"AAPL": {{Headline: "Apple profit growth"}},
		},
		errs: map[string]error{"TSLA": errors.New("boom")},
	}
	svc := NewService(client, NewScorer(nil), ServiceConfig{Concurrency: 2})

	got, err := svc.Impact(context.Background(), []string{"AAPL", "TSLA", "MSFT"})
	if err != nil {
		t.Fatalf("partial failure should not fail the call: %v", err)
	}
	if _, ok := got["TSLA"]; ok {
		t.Error("failed symbol should be absent")
	}
	if got["AAPL"].Sentiment != types.Positive {
		t.Errorf("expected AAPL positive, got %+v", got["AAPL"])
	}
	if got["MSFT"].Sentiment != types.Neutral || got["MSFT"].ArticleCount != 0 {
		t.Errorf("expected MSFT neutral with no articles, got %+v", got["MSFT"])
	}
}

func TestImpactAllFail(t *testing.T) {
	client := &fakeClient{errs: map[string]error{"A": errors.New("x"), "B": errors.New("y")}}
	svc := NewService(client, NewScorer(nil), ServiceConfig{})
	if _, err := svc.Impact(context.Background(), []string{"A", "B"}); err == nil {
		t.Fatal("expected error when every symbol fails")
	}
}

func TestImpactBoundedConcurrency(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(client, NewScorer(nil), ServiceConfig{Concurrency: 2})
	syms := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	got, err := svc.Impact(context.Background(), syms)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(syms) {
		t.Errorf("expected %d impacts, got %d", len(syms), len(got))
	}
	if client.maxSeen > 2 {
		t.Errorf("expected at most 2 concurrent fetches, saw %d", client.maxSeen)
	}
}

func TestImpactEmpty(t *testing.T) {
	svc := NewService(&fakeClient{}, NewScorer(nil), ServiceConfig{})
	got, err := svc.Impact(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty map, got %v %v", got, err)
	}
}

func TestChain(t *testing.T) {
	down := &fakeClient{errs: map[string]error{"AAPL": errors.New("down")}}
	empty := &fakeClient{}
	full := &fakeClient{articles: map[string][]types.Article{"AAPL": {{Headline: "x"}}}}

	got, err := NewChain(NamedClient{"down", down}, NamedClient{"full", full}).GetStockNews(context.Background(), "AAPL", 3)
	if err != nil || len(got) != 1 {
		t.Errorf("expected fallback to second source, got %v %v", got, err)
	}

	got, err = NewChain(NamedClient{"empty", empty}, NamedClient{"down", down}).GetStockNews(context.Background(), "AAPL", 3)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty healthy answer, got %v %v", got, err)
	}

	if _, err := NewChain(NamedClient{"down", down}).GetStockNews(context.Background(), "AAPL", 3); err == nil {
		t.Error("expected error when every source fails")
	}
}
