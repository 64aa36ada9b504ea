package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"tickerscan/internal/adapter/exchange"
	"tickerscan/internal/adapter/generator"
	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
	"tickerscan/internal/infrastructure/config"
)

func reconnectBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

func newExchange(cfg config.Exchange, parseWorkers int, log *slog.Logger) (port.ExchangePort, error) {
	switch cfg.Type {
	case "", "tcp":
		return exchange.NewTCPExchange(cfg.Name, cfg.Host, cfg.Port, parseWorkers, log), nil
	case "ws":
		return exchange.NewWSExchange(cfg.Name, cfg.URL, parseWorkers, log), nil
	case "rest":
		client := &http.Client{Timeout: 10 * time.Second}
		return exchange.NewRESTExchange(cfg.Name, cfg.URL, cfg.PollInterval, parseWorkers, client, log), nil
	default:
		return nil, fmt.Errorf("exchange %s: unknown type %q", cfg.Name, cfg.Type)
	}
}

func newTestFeed(pairs []string, log *slog.Logger) port.ExchangePort {
	return generator.NewTestGenerator("test-generator", pairs, 500*time.Millisecond, log)
}

// superviseFeed keeps ex connected until ctx is done, reconnecting with
// exponential backoff, and forwards its tickers on one stable channel. The
// channel is closed once ctx is done.
func superviseFeed(ctx context.Context, ex port.ExchangePort, log *slog.Logger) <-chan model.Ticker {
	out := make(chan model.Ticker)

	go func() {
		defer close(out)
		b := reconnectBackoff()

		for {
			if err := ex.Connect(ctx); err != nil {
				d := b.Duration()
				log.Error("failed to connect", "exchange", ex.Name(), "error", err, "retry_in", d)
				if !sleep(ctx, d) {
					return
				}
				continue
			}
			b.Reset()

			tickers, errCh := ex.ReadTickers(ctx)
			for t := range tickers {
				select {
				case out <- t:
				case <-ctx.Done():
					_ = ex.Close()
					return
				}
			}
			if err := <-errCh; err != nil {
				log.Error("exchange error", "exchange", ex.Name(), "error", err)
			}
			_ = ex.Close()

			if ctx.Err() != nil {
				return
			}
			d := b.Duration()
			log.Info("attempting to reconnect", "exchange", ex.Name(), "retry_in", d)
			if !sleep(ctx, d) {
				return
			}
		}
	}()

	return out
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
