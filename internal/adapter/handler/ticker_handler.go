package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tickerscan/internal/application/usecase"
)

const defaultPeriod = 5 * time.Minute

type TickerHandler struct {
	useCase *usecase.TickerUseCase
	logger  *slog.Logger
}

func NewTickerHandler(useCase *usecase.TickerUseCase, logger *slog.Logger) *TickerHandler {
	return &TickerHandler{
		useCase: useCase,
		logger:  logger,
	}
}

func (h *TickerHandler) GetLatestTicker(w http.ResponseWriter, r *http.Request) {
	symbol, exchange := r.PathValue("symbol"), r.PathValue("exchange")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	t, err := h.useCase.GetLatestTicker(r.Context(), symbol, exchange)
	if err != nil {
		h.logger.Error("failed to get latest ticker", "error", err, "symbol", symbol, "exchange", exchange)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if t == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *TickerHandler) GetHighestPrice(w http.ResponseWriter, r *http.Request) {
	symbol, exchange := r.PathValue("symbol"), r.PathValue("exchange")
	period := parsePeriod(r, defaultPeriod)

	result, err := h.useCase.GetHighestPrice(r.Context(), symbol, exchange, period)
	if err != nil {
		h.logger.Error("failed to get highest price", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if result == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TickerHandler) GetLowestPrice(w http.ResponseWriter, r *http.Request) {
	symbol, exchange := r.PathValue("symbol"), r.PathValue("exchange")
	period := parsePeriod(r, defaultPeriod)

	result, err := h.useCase.GetLowestPrice(r.Context(), symbol, exchange, period)
	if err != nil {
		h.logger.Error("failed to get lowest price", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if result == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TickerHandler) GetAveragePrice(w http.ResponseWriter, r *http.Request) {
	symbol, exchange := r.PathValue("symbol"), r.PathValue("exchange")
	period := parsePeriod(r, defaultPeriod)

	result, err := h.useCase.GetAveragePrice(r.Context(), symbol, exchange, period)
	if err != nil {
		h.logger.Error("failed to get average price", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   symbol,
		"exchange": exchange,
		"period":   period.String(),
		"average":  result,
	})
}

// parsePeriod falls back to def when ?period is missing, unparsable or not
// positive.
func parsePeriod(r *http.Request, def time.Duration) time.Duration {
	periodStr := r.URL.Query().Get("period")
	if periodStr == "" {
		return def
	}

	d, err := time.ParseDuration(periodStr)
	if err != nil || d <= 0 {
		return def
	}

	return d
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
