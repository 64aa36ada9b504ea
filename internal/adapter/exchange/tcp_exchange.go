package exchange

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
)

// TCPExchange reads newline delimited ticker payloads from a TCP feed. Each
// line holds one ticker object or an array of them.
type TCPExchange struct {
	name   string
	host   string
	port   int
	dec    *decoder
	conn   net.Conn
	log    *slog.Logger
	cancel context.CancelFunc
	mu     sync.RWMutex
}

func NewTCPExchange(name, host string, port, parseWorkers int, log *slog.Logger) port.ExchangePort {
	return &TCPExchange{
		name: name,
		host: host,
		port: port,
		dec:  newDecoder(name, parseWorkers),
		log:  log,
	}
}

func (t *TCPExchange) Name() string {
	return t.name
}

func (t *TCPExchange) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	t.log.Info("connecting to TCP exchange", "exchange", t.name, "addr", addr)

	dialer := net.Dialer{
		Timeout: 5 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.log.Error("failed to connect to TCP exchange", "exchange", t.name, "addr", addr, "error", err)
		return err
	}

	if t.conn != nil {
		t.conn.Close()
	}

	t.conn = conn
	t.log.Info("connected to TCP exchange successfully", "exchange", t.name, "addr", addr)
	return nil
}

func (t *TCPExchange) Subscribe(symbols []string) error {
	t.dec.subscribe(symbols)
	return nil
}

func (t *TCPExchange) ReadTickers(ctx context.Context) (<-chan model.Ticker, <-chan error) {
	out := make(chan model.Ticker)
	errCh := make(chan error, 1)

	readCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancel = cancel
	currentConn := t.conn
	t.mu.Unlock()

	if currentConn == nil {
		t.log.Error("cannot start reading, connection is nil", "exchange", t.name)
		close(out)
		close(errCh)
		cancel()
		return out, errCh
	}

	t.log.Info("starting to read tickers", "exchange", t.name)

	// Unblock the reader when the context ends.
	go func() {
		<-readCtx.Done()
		currentConn.SetReadDeadline(time.Now())
	}()

	go func() {
		defer close(out)
		defer close(errCh)

		defer func() {
			t.mu.Lock()
			if t.cancel != nil {
				t.cancel()
				t.cancel = nil
			}
			t.mu.Unlock()
			currentConn.Close()
		}()

		reader := bufio.NewReaderSize(currentConn, 64*1024)
		lineCount := 0
		errorCount := 0

		for {
			line, err := reader.ReadBytes('\n')
			if readCtx.Err() != nil {
				t.log.Info("read tickers stopped by context cancellation", "exchange", t.name, "lines_read", lineCount, "errors", errorCount)
				return
			}
			if err != nil && len(line) == 0 {
				t.log.Error("error reading from TCP exchange, triggering reconnect", "exchange", t.name, "error", err)
				errCh <- fmt.Errorf("read error: %w", err)
				return
			}

			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			tickers, perr := t.dec.decode(readCtx, line, time.Now())
			if perr != nil {
				t.log.Warn("invalid ticker payload", "exchange", t.name, "error", perr, "line_preview", truncate(string(line), 50))
				errorCount++
				continue
			}

			lineCount++
			if lineCount%100 == 0 {
				t.log.Debug("ticker lines read progress", "exchange", t.name, "count", lineCount)
			}

			if !emit(readCtx, out, tickers) {
				return
			}
			if err != nil {
				t.log.Error("error reading from TCP exchange, triggering reconnect", "exchange", t.name, "error", err)
				errCh <- fmt.Errorf("read error: %w", err)
				return
			}
		}
	}()

	return out, errCh
}

func (t *TCPExchange) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.Info("closing TCP exchange", "exchange", t.name)

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		if err != nil && !errors.Is(err, net.ErrClosed) {
			t.log.Error("error closing connection", "exchange", t.name, "error", err)
			return err
		}
		t.log.Info("TCP exchange closed successfully", "exchange", t.name)
	}

	return nil
}
