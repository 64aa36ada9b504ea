package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tickerscan/internal/domain/model"
	"tickerscan/internal/scanner"
)

// ParseHandler decodes a ticker payload posted by a client. The default
// response is JSON; ?format=wire echoes the records back in the feed layout.
type ParseHandler struct {
	maxBytes int64
	workers  int
	logger   *slog.Logger
}

func NewParseHandler(maxBytes int64, workers int, logger *slog.Logger) *ParseHandler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &ParseHandler{maxBytes: maxBytes, workers: workers, logger: logger}
}

type parseResponse struct {
	Count   int            `json:"count"`
	Elapsed string         `json:"elapsed"`
	Tickers []model.Ticker `json:"tickers"`
}

type parseError struct {
	Error  string `json:"error"`
	Offset int    `json:"offset"`
	Field  int    `json:"field,omitempty"`
	Name   string `json:"name,omitempty"`
}

func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Warn("failed to read parse request", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	records, err := scanner.ParseAllParallel(r.Context(), body, h.workers)
	elapsed := time.Since(start)
	if err != nil {
		var se *scanner.SyntaxError
		if errors.As(err, &se) {
			h.logger.Debug("rejected malformed payload", "offset", se.Offset, "field", se.Name, "error", se.Msg)
			writeJSON(w, http.StatusBadRequest, parseError{
				Error:  se.Msg,
				Offset: se.Offset,
				Field:  se.Field,
				Name:   se.Name,
			})
			return
		}
		h.logger.Error("parse failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("parsed payload", "records", len(records), "bytes", len(body), "elapsed", elapsed)

	if r.URL.Query().Get("format") == "wire" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(scanner.AppendRecords(nil, records))
		return
	}

	now := time.Now().UTC()
	tickers := make([]model.Ticker, len(records))
	for i := range records {
		tickers[i] = records[i].Ticker("request", now)
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Count:   len(tickers),
		Elapsed: elapsed.String(),
		Tickers: tickers,
	})
}
