package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
)

var ErrNoTradingPairs = errors.New("no trading pairs configured for aggregation")

// AggregationService periodically folds the cached ticker windows into
// avg/min/max rows of last prices and stores them in Postgres.
type AggregationService struct {
	cache        port.CachePort
	storage      port.StoragePort
	logger       *slog.Logger
	ticker       *time.Ticker
	done         chan struct{}
	tradingPairs []string
	exchanges    []string
	retention    time.Duration
	mu           sync.RWMutex
}

// NewAggregationService aggregates the given pairs; an empty list leaves the
// service idle until SetTradingPairs is called.
func NewAggregationService(cache port.CachePort, storage port.StoragePort, logger *slog.Logger, pairs []string) *AggregationService {
	return &AggregationService{
		cache:        cache,
		storage:      storage,
		logger:       logger,
		done:         make(chan struct{}),
		tradingPairs: append([]string{}, pairs...),
		retention:    time.Minute,
	}
}

func (s *AggregationService) SetTradingPairs(pairs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tradingPairs = append([]string{}, pairs...)
	s.logger.Info("trading pairs set", "count", len(pairs), "pairs", pairs)
}

func (s *AggregationService) SetExchanges(exchanges []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append([]string{}, exchanges...)
	s.logger.Info("exchanges set for aggregation", "count", len(exchanges), "exchanges", exchanges)
}

// Start runs an aggregation every interval, one minute when interval <= 0.
// Cached tickers older than one interval are dropped after each run.
func (s *AggregationService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.retention = interval
	s.ticker = time.NewTicker(interval)
	s.mu.Unlock()

	s.logger.Info("aggregation service starting", "interval", interval.String())

	go s.aggregateLoop(ctx)
}

// Stop ends the loop. A final aggregation runs on the way out.
func (s *AggregationService) Stop() {
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	s.logger.Info("aggregation service stopped")
}

func (s *AggregationService) aggregateLoop(ctx context.Context) {
	s.logger.Info("aggregation loop started")
	defer func() {
		s.logger.Info("running final aggregation before exit")
		_ = s.aggregateAndStore(context.WithoutCancel(ctx))
	}()

	for {
		s.mu.RLock()
		tick := s.ticker
		s.mu.RUnlock()

		if tick == nil {
			select {
			case <-time.After(time.Second):
				continue
			case <-s.done:
				return
			}
		}

		select {
		case <-tick.C:
			s.logger.Info("starting aggregation cycle")
			start := time.Now()
			if err := s.aggregateAndStore(ctx); err != nil {
				s.logger.Error("aggregation failed", "error", err, "duration", time.Since(start))
			} else {
				s.logger.Info("aggregation cycle completed", "duration", time.Since(start))
			}
		case <-s.done:
			s.logger.Info("aggregation loop stopping by done channel")
			return
		case <-ctx.Done():
			s.logger.Info("aggregation loop cancelled by context")
			return
		}
	}
}

func (s *AggregationService) aggregateAndStore(ctx context.Context) error {
	s.mu.RLock()
	pairs := append([]string{}, s.tradingPairs...)
	exchanges := append([]string{}, s.exchanges...)
	retention := s.retention
	s.mu.RUnlock()

	if len(pairs) == 0 {
		s.logger.Warn("no trading pairs configured for aggregation")
		return ErrNoTradingPairs
	}

	s.logger.Debug("aggregating data", "pairs", len(pairs), "exchanges", len(exchanges))

	var batch []model.AggregatedPrice

	if len(exchanges) > 0 {
		for _, exch := range exchanges {
			for _, pair := range pairs {
				tickers, err := s.cache.GetTickersInWindow(ctx, pair, exch)
				if err != nil {
					s.logger.Error("failed to get tickers from cache", "pair", pair, "exchange", exch, "error", err)
					continue
				}
				if len(tickers) == 0 {
					s.logger.Debug("no tickers in window", "pair", pair, "exchange", exch)
					continue
				}
				avg, mn, mx := computeStats(tickers)
				batch = append(batch, model.AggregatedPrice{
					PairName:     pair,
					Exchange:     exch,
					Timestamp:    time.Now().UTC(),
					AveragePrice: avg,
					MinPrice:     mn,
					MaxPrice:     mx,
				})
				s.logger.Debug("aggregated", "pair", pair, "exchange", exch, "count", len(tickers), "avg", avg, "min", mn, "max", mx)
			}
		}
	} else {
		// the cache returns every exchange's window when exchange is empty
		for _, pair := range pairs {
			tickers, err := s.cache.GetTickersInWindow(ctx, pair, "")
			if err != nil {
				s.logger.Error("failed to get tickers from cache", "pair", pair, "error", err)
				continue
			}
			if len(tickers) == 0 {
				s.logger.Debug("no tickers in window", "pair", pair)
				continue
			}

			byExchange := make(map[string][]model.Ticker)
			for _, t := range tickers {
				byExchange[t.Exchange] = append(byExchange[t.Exchange], t)
			}

			for exch, exTickers := range byExchange {
				avg, mn, mx := computeStats(exTickers)
				batch = append(batch, model.AggregatedPrice{
					PairName:     pair,
					Exchange:     exch,
					Timestamp:    time.Now().UTC(),
					AveragePrice: avg,
					MinPrice:     mn,
					MaxPrice:     mx,
				})
				s.logger.Debug("aggregated", "pair", pair, "exchange", exch, "count", len(exTickers), "avg", avg, "min", mn, "max", mx)
			}
		}
	}

	if len(batch) == 0 {
		s.logger.Info("aggregation: nothing to store")
		s.pruneCache(ctx, retention)
		return nil
	}

	s.logger.Info("saving aggregated batch", "count", len(batch))
	if err := s.storage.SaveAggregatedPrices(ctx, batch); err != nil {
		s.logger.Error("failed to save aggregated prices", "error", err, "batch_size", len(batch))
		// keep the window so the next run can retry
		return err
	}
	s.logger.Info("aggregated batch saved successfully", "count", len(batch))

	s.pruneCache(ctx, retention)
	return nil
}

func (s *AggregationService) pruneCache(ctx context.Context, retention time.Duration) {
	if err := s.cache.DeleteOldTickers(ctx, time.Now().Add(-retention)); err != nil {
		s.logger.Error("failed to delete old tickers from cache", "error", err)
	} else {
		s.logger.Debug("old tickers deleted from cache")
	}
}

// computeStats works on last traded prices.
func computeStats(tickers []model.Ticker) (avg, lo, hi float64) {
	if len(tickers) == 0 {
		return 0, 0, 0
	}
	lo = tickers[0].LastPrice
	hi = tickers[0].LastPrice
	var sum float64
	for _, t := range tickers {
		lo = min(lo, t.LastPrice)
		hi = max(hi, t.LastPrice)
		sum += t.LastPrice
	}
	avg = sum / float64(len(tickers))
	return avg, lo, hi
}
