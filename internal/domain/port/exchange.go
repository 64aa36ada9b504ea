package port

import (
	"context"

	"tickerscan/internal/domain/model"
)

// ExchangePort is a source of ticker quotes.
type ExchangePort interface {
	Connect(ctx context.Context) error
	Subscribe(symbols []string) error
	ReadTickers(ctx context.Context) (<-chan model.Ticker, <-chan error)
	Close() error
	Name() string
}
