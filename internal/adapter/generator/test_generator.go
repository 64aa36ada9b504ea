package generator

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
	"tickerscan/internal/sample"
	"tickerscan/internal/scanner"
)

// TestGenerator is the test mode feed. Every interval it renders one ticker
// per pair in the wire layout and decodes it back through the scanner, so
// test mode exercises the same path as live feeds.
type TestGenerator struct {
	name      string
	templates []scanner.Record
	interval  time.Duration
	log       *slog.Logger
	cancel    context.CancelFunc
}

// NewTestGenerator builds a generator for pairs. Pairs found in the sample
// payload start from their captured quote; others borrow the values of a
// sample quote. With no pairs the sample symbols are used.
func NewTestGenerator(name string, pairs []string, interval time.Duration, log *slog.Logger) port.ExchangePort {
	base, err := scanner.ParseAll(sample.Tickers())
	if err != nil {
		panic("generator: invalid sample payload: " + err.Error())
	}

	templates := base
	if len(pairs) > 0 {
		bySymbol := make(map[string]scanner.Record, len(base))
		for _, r := range base {
			bySymbol[string(r.Symbol)] = r
		}
		templates = make([]scanner.Record, len(pairs))
		for i, p := range pairs {
			r, ok := bySymbol[p]
			if !ok {
				r = base[i%len(base)]
				r.Symbol = []byte(p)
			}
			templates[i] = r
		}
	}

	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &TestGenerator{name: name, templates: templates, interval: interval, log: log}
}

func (t *TestGenerator) Name() string { return t.name }

func (t *TestGenerator) Connect(ctx context.Context) error {
	return nil
}

func (t *TestGenerator) Subscribe(symbols []string) error {
	return nil
}

func (t *TestGenerator) ReadTickers(ctx context.Context) (<-chan model.Ticker, <-chan error) {
	out := make(chan model.Ticker)
	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	go func() {
		defer close(out)
		defer close(errCh)
		defer cancel()

		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		records := make([]scanner.Record, len(t.templates))
		copy(records, t.templates)
		var buf []byte

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for i := range records {
					jitter(r, &records[i], &t.templates[i])
				}
				buf = scanner.AppendRecords(buf[:0], records)

				parsed, err := scanner.ParseAll(buf)
				if err != nil {
					t.log.Error("generator produced an unreadable payload", "error", err)
					errCh <- err
					return
				}
				now := time.Now()
				for i := range parsed {
					select {
					case out <- parsed[i].Ticker(t.name, now):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, errCh
}

// jitter moves the quote up to 1% around its template. A zero price in the
// template gets a small positive one so test data is never flat.
func jitter(r *rand.Rand, rec, tmpl *scanner.Record) {
	mid := tmpl.LastPrice
	if mid == 0 {
		mid = (tmpl.BidPrice + tmpl.AskPrice) / 2
	}
	if mid == 0 {
		mid = 1
	}
	last := mid * (1 + (r.Float64()-0.5)/50)
	spread := mid / 100

	rec.LastPrice = last
	rec.BidPrice = last - spread/2
	rec.AskPrice = last + spread/2
	rec.High = max(rec.High, last)
	if rec.Low == 0 || last < rec.Low {
		rec.Low = last
	}
	rec.LastQty = float64(1+r.Intn(10)) / 10
	rec.Volume += rec.LastQty
	rec.Amount += rec.LastQty * last
	rec.TradeCount++
	rec.CloseTime = time.Now().UnixMilli()
}

func (t *TestGenerator) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}
