package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tickerscan/internal/application/service"
	"tickerscan/internal/application/usecase"
	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port/porttest"
	"tickerscan/internal/sample"
	"tickerscan/internal/scanner"
)

type fixture struct {
	cache   *porttest.CacheMock
	storage *porttest.StorageMock
	modes   *service.ModeService
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		cache:   &porttest.CacheMock{},
		storage: &porttest.StorageMock{},
		modes:   service.NewModeService(model.LiveMode, log),
	}
	switchFn := func(ctx context.Context, m model.DataMode) error {
		return f.modes.SwitchMode(ctx, m)
	}
	f.router = NewRouter(
		NewTickerHandler(usecase.NewTickerUseCase(f.storage, f.cache), log),
		NewParseHandler(4096, 2, log),
		NewModeHandler(f.modes, switchFn, log),
		NewHealthHandler(f.storage, f.cache, log),
	)
	return f
}

func (f *fixture) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestGetLatestTicker(t *testing.T) {
	f := newFixture(t)
	f.cache.On("GetLatestTicker", mock.Anything, "BTC-250725-130000-C", "binance").
		Return(&model.Ticker{Symbol: "BTC-250725-130000-C", Exchange: "binance", LastPrice: 2520}, nil)

	rec := f.do(http.MethodGet, "/tickers/latest/binance/BTC-250725-130000-C", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Ticker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2520.0, got.LastPrice)
	assert.Equal(t, "binance", got.Exchange)
}

func TestGetLatestTicker_NotFound(t *testing.T) {
	f := newFixture(t)
	f.cache.On("GetLatestTicker", mock.Anything, "X", "").Return(nil, nil)
	f.storage.On("GetLatestPrice", mock.Anything, "X", "", usecase.LatestLookback).Return(nil, nil)

	rec := f.do(http.MethodGet, "/tickers/latest/X", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHighestPrice_Period(t *testing.T) {
	f := newFixture(t)
	f.storage.On("GetHighestPrice", mock.Anything, "X", "", 30*time.Second).
		Return(&model.AggregatedPrice{PairName: "X", MaxPrice: 9}, nil)

	rec := f.do(http.MethodGet, "/tickers/highest/X?period=30s", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"max_price":9`)
}

func TestGetLowestPrice_StorageError(t *testing.T) {
	f := newFixture(t)
	f.storage.On("GetLowestPrice", mock.Anything, "X", "ex", defaultPeriod).Return(nil, errors.New("db down"))

	rec := f.do(http.MethodGet, "/tickers/lowest/ex/X?period=bogus", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetAveragePrice(t *testing.T) {
	f := newFixture(t)
	f.storage.On("GetAveragePrice", mock.Anything, "X", "", time.Minute).Return(42.5, nil)

	rec := f.do(http.MethodGet, "/tickers/average/X?period=1m", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 42.5, got["average"])
	assert.Equal(t, "1m0s", got["period"])
}

func TestParse(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/parse", strings.NewReader(string(sample.Tickers())))
	require.Equal(t, http.StatusOK, rec.Code)

	var got parseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 3, got.Count)
	assert.Equal(t, "request", got.Tickers[0].Exchange)
	assert.NotEmpty(t, got.Tickers[0].Symbol)
}

func TestParse_Wire(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/parse?format=wire", strings.NewReader(string(sample.Tickers())))
	require.Equal(t, http.StatusOK, rec.Code)

	want, err := scanner.ParseAll(sample.Tickers())
	require.NoError(t, err)
	got, err := scanner.ParseAll(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParse_Empty(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/parse", strings.NewReader("[]"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
	assert.Contains(t, rec.Body.String(), `"tickers":[]`)
}

func TestParse_Malformed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/parse", strings.NewReader(`[{"symbol":"X","priceChange":"abc"`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got parseError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Field)
	assert.Equal(t, "priceChange", got.Name)
}

func TestParse_TooLarge(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/parse", strings.NewReader(strings.Repeat(" ", 5000)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestParse_MethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/parse", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestModeSwitch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/mode/test", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.TestMode, f.modes.GetCurrentMode())

	rec = f.do(http.MethodPost, "/mode/test", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in requested mode")

	rec = f.do(http.MethodGet, "/mode", nil)
	assert.Contains(t, rec.Body.String(), `"mode":"test"`)

	rec = f.do(http.MethodPost, "/mode/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.LiveMode, f.modes.GetCurrentMode())
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.storage.On("Ping", mock.Anything).Return(nil)
	f.cache.On("Ping", mock.Anything).Return(nil)

	rec := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestHealth_Degraded(t *testing.T) {
	f := newFixture(t)
	f.storage.On("Ping", mock.Anything).Return(nil)
	f.cache.On("Ping", mock.Anything).Return(errors.New("redis down"))

	rec := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"unhealthy"`)
}
