package exchange

import (
	"context"
	"sync"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/scanner"
)

// decoder turns raw feed payloads into owned tickers, keeping only the
// subscribed symbols when a subscription is set.
type decoder struct {
	exchange string
	workers  int

	mu      sync.RWMutex
	symbols map[string]struct{}
}

func newDecoder(exchange string, workers int) *decoder {
	return &decoder{exchange: exchange, workers: workers}
}

func (d *decoder) subscribe(symbols []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(symbols) == 0 {
		d.symbols = nil
		return
	}
	d.symbols = make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		d.symbols[s] = struct{}{}
	}
}

func (d *decoder) decode(ctx context.Context, payload []byte, receivedAt time.Time) ([]model.Ticker, error) {
	records, err := scanner.ParseAllParallel(ctx, payload, d.workers)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]model.Ticker, 0, len(records))
	for i := range records {
		if d.symbols != nil {
			if _, ok := d.symbols[string(records[i].Symbol)]; !ok {
				continue
			}
		}
		out = append(out, records[i].Ticker(d.exchange, receivedAt))
	}
	return out, nil
}

// emit sends tickers to out and reports false once ctx is done.
func emit(ctx context.Context, out chan<- model.Ticker, tickers []model.Ticker) bool {
	for _, t := range tickers {
		select {
		case out <- t:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
