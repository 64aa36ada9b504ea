package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port/porttest"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(ch <-chan model.Ticker) []model.Ticker {
	var got []model.Ticker
	for t := range ch {
		got = append(got, t)
	}
	return got
}

func TestPool_WritesToCache(t *testing.T) {
	cache := &porttest.CacheMock{}
	storage := &porttest.StorageMock{}
	cache.On("SetLatestTicker", mock.Anything, mock.Anything).Return(nil)
	cache.On("AddTickerToWindow", mock.Anything, mock.Anything).Return(nil)

	in := make(chan model.Ticker, 4)
	for _, s := range []string{"A", "B", "C", "A"} {
		in <- model.Ticker{Exchange: "ex", Symbol: s, LastPrice: 1}
	}
	close(in)

	got := drain(NewPool(2, cache, storage, discard()).Start(context.Background(), in))
	assert.Len(t, got, 4)
	cache.AssertNumberOfCalls(t, "SetLatestTicker", 4)
	cache.AssertNumberOfCalls(t, "AddTickerToWindow", 4)
	storage.AssertNotCalled(t, "SaveAggregatedPrices", mock.Anything, mock.Anything)
}

func TestPool_FallsBackToStorage(t *testing.T) {
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	tk := model.Ticker{Exchange: "ex", Symbol: "BTC-250510-100000-C", LastPrice: 42.5, ReceivedAt: at}

	cache := &porttest.CacheMock{}
	storage := &porttest.StorageMock{}
	cache.On("SetLatestTicker", mock.Anything, tk).Return(errors.New("redis down"))
	storage.On("SaveAggregatedPrices", mock.Anything, []model.AggregatedPrice{{
		PairName:     tk.Symbol,
		Exchange:     "ex",
		Timestamp:    at,
		AveragePrice: 42.5,
		MinPrice:     42.5,
		MaxPrice:     42.5,
	}}).Return(nil)

	in := make(chan model.Ticker, 1)
	in <- tk
	close(in)

	got := drain(NewPool(1, cache, storage, discard()).Start(context.Background(), in))
	require.Len(t, got, 1)
	storage.AssertExpectations(t)
	cache.AssertNotCalled(t, "AddTickerToWindow", mock.Anything, mock.Anything)
}

func TestPool_WindowFailureFallsBack(t *testing.T) {
	cache := &porttest.CacheMock{}
	storage := &porttest.StorageMock{}
	cache.On("SetLatestTicker", mock.Anything, mock.Anything).Return(nil)
	cache.On("AddTickerToWindow", mock.Anything, mock.Anything).Return(errors.New("oom"))
	storage.On("SaveAggregatedPrices", mock.Anything, mock.Anything).Return(nil)

	in := make(chan model.Ticker, 1)
	in <- model.Ticker{Exchange: "ex", Symbol: "X"}
	close(in)

	drain(NewPool(1, cache, storage, discard()).Start(context.Background(), in))
	storage.AssertNumberOfCalls(t, "SaveAggregatedPrices", 1)
}

func TestPool_StopsOnCancel(t *testing.T) {
	cache := &porttest.CacheMock{}
	storage := &porttest.StorageMock{}
	cache.On("SetLatestTicker", mock.Anything, mock.Anything).Return(nil)
	cache.On("AddTickerToWindow", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan model.Ticker)
	out := NewPool(3, cache, storage, discard()).Start(ctx, in)

	cancel()
	close(in)

	select {
	case <-waitClosed(out):
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}
}

func waitClosed(ch <-chan model.Ticker) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	return done
}
