package worker

import (
	"context"
	"log/slog"
	"sync"

	"tickerscan/internal/concurrency/fanout"
	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
)

// Pool writes tickers to the cache: latest value first, then the sliding
// window. When the cache refuses a write the ticker's last price is stored in
// Postgres as a single point aggregate so it is not lost.
type Pool struct {
	workers int
	cache   port.CachePort
	storage port.StoragePort
	logger  *slog.Logger
}

func NewPool(workers int, cache port.CachePort, storage port.StoragePort, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		cache:   cache,
		storage: storage,
		logger:  logger,
	}
}

// Start consumes in until it is closed or ctx is done. Tickers of one symbol
// always land on the same worker, so the cache never sees them out of order.
// Every handled ticker is forwarded on the returned channel, which is closed
// when all workers have returned.
func (p *Pool) Start(ctx context.Context, in <-chan model.Ticker) <-chan model.Ticker {
	out := make(chan model.Ticker)
	var wg sync.WaitGroup

	lanes := fanout.ByKey(in, p.workers, fanout.SymbolKey)

	wg.Add(len(lanes))
	for i, lane := range lanes {
		go func() {
			defer wg.Done()
			p.workerLoop(ctx, i, lane, out)
			// unblock the fan-out goroutine after cancellation
			for range lane {
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (p *Pool) workerLoop(ctx context.Context, id int, in <-chan model.Ticker, out chan<- model.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-in:
			if !ok {
				return
			}
			p.processOne(ctx, id, t)

			select {
			case <-ctx.Done():
				return
			case out <- t:
			}
		}
	}
}

func (p *Pool) processOne(ctx context.Context, id int, t model.Ticker) {
	if err := p.cache.SetLatestTicker(ctx, t); err != nil {
		p.logger.Error("worker: SetLatestTicker failed, falling back to storage", "worker", id, "exchange", t.Exchange, "symbol", t.Symbol, "err", err)
		p.fallbackWrite(ctx, t)
		return
	}

	if err := p.cache.AddTickerToWindow(ctx, t); err != nil {
		p.logger.Error("worker: AddTickerToWindow failed, falling back to storage", "worker", id, "exchange", t.Exchange, "symbol", t.Symbol, "err", err)
		p.fallbackWrite(ctx, t)
		return
	}

	p.logger.Debug("worker: processed ticker", "worker", id, "exchange", t.Exchange, "symbol", t.Symbol, "last", t.LastPrice)
}

// fallbackWrite stores one ticker as an aggregate with avg = min = max.
func (p *Pool) fallbackWrite(ctx context.Context, t model.Ticker) {
	ap := model.AggregatedPrice{
		PairName:     t.Symbol,
		Exchange:     t.Exchange,
		Timestamp:    t.ReceivedAt,
		AveragePrice: t.LastPrice,
		MinPrice:     t.LastPrice,
		MaxPrice:     t.LastPrice,
	}

	if err := p.storage.SaveAggregatedPrices(ctx, []model.AggregatedPrice{ap}); err != nil {
		p.logger.Error("worker: fallback SaveAggregatedPrices failed", "exchange", t.Exchange, "symbol", t.Symbol, "err", err)
	}
}
