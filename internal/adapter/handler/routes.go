package handler

import "net/http"

// NewRouter mounts every endpoint on a fresh mux.
func NewRouter(tickers *TickerHandler, parse *ParseHandler, mode *ModeHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tickers/latest/{symbol}", tickers.GetLatestTicker)
	mux.HandleFunc("GET /tickers/latest/{exchange}/{symbol}", tickers.GetLatestTicker)
	mux.HandleFunc("GET /tickers/highest/{symbol}", tickers.GetHighestPrice)
	mux.HandleFunc("GET /tickers/highest/{exchange}/{symbol}", tickers.GetHighestPrice)
	mux.HandleFunc("GET /tickers/lowest/{symbol}", tickers.GetLowestPrice)
	mux.HandleFunc("GET /tickers/lowest/{exchange}/{symbol}", tickers.GetLowestPrice)
	mux.HandleFunc("GET /tickers/average/{symbol}", tickers.GetAveragePrice)
	mux.HandleFunc("GET /tickers/average/{exchange}/{symbol}", tickers.GetAveragePrice)

	mux.HandleFunc("POST /parse", parse.Parse)

	mux.HandleFunc("GET /mode", mode.GetMode)
	mux.HandleFunc("POST /mode/test", mode.SwitchToTest)
	mux.HandleFunc("POST /mode/live", mode.SwitchToLive)
	mux.HandleFunc("GET /health", health.Check)

	return mux
}
