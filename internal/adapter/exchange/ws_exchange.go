package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
)

// WSExchange reads ticker payloads from WebSocket text frames.
type WSExchange struct {
	name   string
	url    string
	dialer *websocket.Dialer
	dec    *decoder
	conn   *websocket.Conn
	log    *slog.Logger
	cancel context.CancelFunc
	mu     sync.Mutex
}

func NewWSExchange(name, url string, parseWorkers int, log *slog.Logger) port.ExchangePort {
	return &WSExchange{
		name: name,
		url:  url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		dec: newDecoder(name, parseWorkers),
		log: log,
	}
}

func (w *WSExchange) Name() string {
	return w.name
}

func (w *WSExchange) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.log.Info("connecting to WebSocket exchange", "exchange", w.name, "url", w.url)

	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		w.log.Error("failed to connect to WebSocket exchange", "exchange", w.name, "url", w.url, "error", err)
		return err
	}

	if w.conn != nil {
		w.conn.Close()
	}
	w.conn = conn

	w.log.Info("connected to WebSocket exchange successfully", "exchange", w.name, "url", w.url)
	return nil
}

func (w *WSExchange) Subscribe(symbols []string) error {
	w.dec.subscribe(symbols)
	return nil
}

func (w *WSExchange) ReadTickers(ctx context.Context) (<-chan model.Ticker, <-chan error) {
	out := make(chan model.Ticker)
	errCh := make(chan error, 1)

	readCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.cancel = cancel
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		w.log.Error("cannot start reading, connection is nil", "exchange", w.name)
		close(out)
		close(errCh)
		cancel()
		return out, errCh
	}

	go func() {
		<-readCtx.Done()
		conn.Close()
	}()

	go func() {
		defer close(out)
		defer close(errCh)
		defer cancel()

		frames := 0
		for {
			msgType, payload, err := conn.ReadMessage()
			if readCtx.Err() != nil {
				w.log.Info("read tickers stopped by context cancellation", "exchange", w.name, "frames", frames)
				return
			}
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					w.log.Info("WebSocket exchange closed the stream", "exchange", w.name)
				} else {
					w.log.Error("error reading from WebSocket exchange, triggering reconnect", "exchange", w.name, "error", err)
				}
				errCh <- fmt.Errorf("read error: %w", err)
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			frames++

			tickers, err := w.dec.decode(readCtx, payload, time.Now())
			if err != nil {
				w.log.Warn("invalid ticker payload", "exchange", w.name, "error", err, "frame_preview", truncate(string(payload), 50))
				continue
			}
			if !emit(readCtx, out, tickers) {
				return
			}
		}
	}()

	return out, errCh
}

func (w *WSExchange) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.log.Info("closing WebSocket exchange", "exchange", w.name)

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := w.conn.Close()
	w.conn = nil
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
