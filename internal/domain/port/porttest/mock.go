// Package porttest holds testify mocks of the domain ports.
package porttest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tickerscan/internal/domain/model"
)

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) SetLatestTicker(ctx context.Context, t model.Ticker) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *CacheMock) GetLatestTicker(ctx context.Context, symbol, exchange string) (*model.Ticker, error) {
	args := m.Called(ctx, symbol, exchange)
	t, _ := args.Get(0).(*model.Ticker)
	return t, args.Error(1)
}

func (m *CacheMock) AddTickerToWindow(ctx context.Context, t model.Ticker) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *CacheMock) GetTickersInWindow(ctx context.Context, symbol, exchange string) ([]model.Ticker, error) {
	args := m.Called(ctx, symbol, exchange)
	ts, _ := args.Get(0).([]model.Ticker)
	return ts, args.Error(1)
}

func (m *CacheMock) DeleteOldTickers(ctx context.Context, before time.Time) error {
	args := m.Called(ctx, before)
	return args.Error(0)
}

func (m *CacheMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CacheMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) SaveAggregatedPrices(ctx context.Context, prices []model.AggregatedPrice) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *StorageMock) GetLatestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	args := m.Called(ctx, symbol, exchange, period)
	p, _ := args.Get(0).(*model.AggregatedPrice)
	return p, args.Error(1)
}

func (m *StorageMock) GetHighestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	args := m.Called(ctx, symbol, exchange, period)
	p, _ := args.Get(0).(*model.AggregatedPrice)
	return p, args.Error(1)
}

func (m *StorageMock) GetLowestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	args := m.Called(ctx, symbol, exchange, period)
	p, _ := args.Get(0).(*model.AggregatedPrice)
	return p, args.Error(1)
}

func (m *StorageMock) GetAveragePrice(ctx context.Context, symbol, exchange string, period time.Duration) (float64, error) {
	args := m.Called(ctx, symbol, exchange, period)
	return args.Get(0).(float64), args.Error(1)
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
