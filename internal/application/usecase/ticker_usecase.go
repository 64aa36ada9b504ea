package usecase

import (
	"context"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
)

// LatestLookback bounds how far back storage is searched when the cache has
// no latest ticker.
const LatestLookback = time.Hour

type TickerUseCase struct {
	storage port.StoragePort
	cache   port.CachePort
}

func NewTickerUseCase(storage port.StoragePort, cache port.CachePort) *TickerUseCase {
	return &TickerUseCase{
		storage: storage,
		cache:   cache,
	}
}

// GetLatestTicker reads the cache. When the cache is empty or unreachable
// the most recent stored aggregate stands in, carrying its average as the
// last price.
func (uc *TickerUseCase) GetLatestTicker(ctx context.Context, symbol, exchange string) (*model.Ticker, error) {
	t, cacheErr := uc.cache.GetLatestTicker(ctx, symbol, exchange)
	if cacheErr == nil && t != nil {
		return t, nil
	}

	agg, err := uc.storage.GetLatestPrice(ctx, symbol, exchange, LatestLookback)
	if err != nil {
		if cacheErr != nil {
			return nil, cacheErr
		}
		return nil, err
	}
	if agg == nil {
		return nil, cacheErr
	}
	return &model.Ticker{
		Symbol:     agg.PairName,
		Exchange:   agg.Exchange,
		LastPrice:  agg.AveragePrice,
		High:       agg.MaxPrice,
		Low:        agg.MinPrice,
		ReceivedAt: agg.Timestamp,
	}, nil
}

func (uc *TickerUseCase) GetHighestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	return uc.storage.GetHighestPrice(ctx, symbol, exchange, period)
}

func (uc *TickerUseCase) GetLowestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	return uc.storage.GetLowestPrice(ctx, symbol, exchange, period)
}

func (uc *TickerUseCase) GetAveragePrice(ctx context.Context, symbol, exchange string, period time.Duration) (float64, error) {
	return uc.storage.GetAveragePrice(ctx, symbol, exchange, period)
}
