package exchange

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
)

const maxPayloadBytes = 32 << 20

// RESTExchange polls an endpoint that answers with the full ticker array,
// such as the options /eapi/v1/ticker route.
type RESTExchange struct {
	name     string
	url      string
	interval time.Duration
	maxBytes int64
	client   *http.Client
	dec      *decoder
	log      *slog.Logger
	cancel   context.CancelFunc
	mu       sync.Mutex
}

func NewRESTExchange(name, endpoint string, interval time.Duration, parseWorkers int, client *http.Client, log *slog.Logger) port.ExchangePort {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &RESTExchange{
		name:     name,
		url:      endpoint,
		interval: interval,
		maxBytes: maxPayloadBytes,
		client:   client,
		dec:      newDecoder(name, parseWorkers),
		log:      log,
	}
}

func (r *RESTExchange) Name() string {
	return r.name
}

// Connect checks the endpoint answers; polling starts with ReadTickers.
func (r *RESTExchange) Connect(ctx context.Context) error {
	if _, err := url.ParseRequestURI(r.url); err != nil {
		return fmt.Errorf("invalid endpoint for %s: %w", r.name, err)
	}

	body, err := r.fetch(ctx)
	if err != nil {
		r.log.Error("failed to reach REST exchange", "exchange", r.name, "url", r.url, "error", err)
		return err
	}
	r.log.Info("connected to REST exchange successfully", "exchange", r.name, "url", r.url, "bytes", len(body))
	return nil
}

func (r *RESTExchange) Subscribe(symbols []string) error {
	r.dec.subscribe(symbols)
	return nil
}

func (r *RESTExchange) ReadTickers(ctx context.Context) (<-chan model.Ticker, <-chan error) {
	out := make(chan model.Ticker)
	errCh := make(chan error, 1)

	pollCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)
		defer cancel()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		polls := 0
		for {
			if !r.poll(pollCtx, out) {
				return
			}
			polls++
			if polls%100 == 0 {
				r.log.Debug("REST polls progress", "exchange", r.name, "count", polls)
			}

			select {
			case <-pollCtx.Done():
				r.log.Info("polling stopped by context cancellation", "exchange", r.name, "polls", polls)
				return
			case <-ticker.C:
			}
		}
	}()

	return out, errCh
}

// poll fetches and emits one snapshot. Fetch and parse failures are logged
// and retried on the next tick; it reports false once ctx is done.
func (r *RESTExchange) poll(ctx context.Context, out chan<- model.Ticker) bool {
	receivedAt := time.Now()
	body, err := r.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		r.log.Warn("failed to fetch tickers", "exchange", r.name, "error", err)
		return true
	}

	tickers, err := r.dec.decode(ctx, body, receivedAt)
	if err != nil {
		r.log.Warn("invalid ticker payload", "exchange", r.name, "error", err, "body_preview", truncate(string(body), 50))
		return true
	}

	return emit(ctx, out, tickers)
}

func (r *RESTExchange) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > r.maxBytes {
		return nil, fmt.Errorf("payload exceeds %d bytes", r.maxBytes)
	}
	return body, nil
}

func (r *RESTExchange) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("closing REST exchange", "exchange", r.name)
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return nil
}
