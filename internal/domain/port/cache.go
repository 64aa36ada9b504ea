package port

import (
	"context"
	"time"

	"tickerscan/internal/domain/model"
)

type CachePort interface {
	SetLatestTicker(ctx context.Context, t model.Ticker) error
	// GetLatestTicker returns nil, nil when nothing is cached. An empty
	// exchange matches the most recent ticker of any exchange.
	GetLatestTicker(ctx context.Context, symbol, exchange string) (*model.Ticker, error)
	AddTickerToWindow(ctx context.Context, t model.Ticker) error
	GetTickersInWindow(ctx context.Context, symbol, exchange string) ([]model.Ticker, error)
	DeleteOldTickers(ctx context.Context, before time.Time) error
	Ping(ctx context.Context) error
	Close() error
}
