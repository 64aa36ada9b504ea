package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerscan/internal/domain/model"
)

func setupMock(t *testing.T) (*PostgresAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresAdapterFromDB(db), mock
}

func TestPostgresAdapter_InitSchema(t *testing.T) {
	a, mock := setupMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS aggregated_prices").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, a.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_SaveAggregatedPrices(t *testing.T) {
	ts := time.Date(2025, 5, 11, 9, 0, 0, 0, time.UTC)
	batch := []model.AggregatedPrice{
		{PairName: "ETH-250516-2550-C", Exchange: "alpha", Timestamp: ts, AveragePrice: 78, MinPrice: 77.2, MaxPrice: 79.6},
		{PairName: "BTC-250725-130000-C", Exchange: "alpha", Timestamp: ts, AveragePrice: 2520, MinPrice: 2520, MaxPrice: 2520},
	}

	t.Run("commits batch", func(t *testing.T) {
		a, mock := setupMock(t)
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta(insertAggregated))
		for _, p := range batch {
			prep.ExpectExec().
				WithArgs(p.PairName, p.Exchange, p.Timestamp, p.AveragePrice, p.MinPrice, p.MaxPrice).
				WillReturnResult(sqlmock.NewResult(1, 1))
		}
		mock.ExpectCommit()

		require.NoError(t, a.SaveAggregatedPrices(context.Background(), batch))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on insert error", func(t *testing.T) {
		a, mock := setupMock(t)
		mock.ExpectBegin()
		mock.ExpectPrepare(regexp.QuoteMeta(insertAggregated)).
			ExpectExec().WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := a.SaveAggregatedPrices(context.Background(), batch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		a, mock := setupMock(t)
		require.NoError(t, a.SaveAggregatedPrices(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresAdapter_GetHighestPrice(t *testing.T) {
	a, mock := setupMock(t)
	ts := time.Date(2025, 5, 11, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"pair_name", "exchange", "timestamp", "average_price", "min_price", "max_price"}).
		AddRow("ETH-250516-2550-C", "alpha", ts, 78.0, 77.2, 115.8)
	mock.ExpectQuery("ORDER BY max_price DESC LIMIT 1").
		WithArgs("ETH-250516-2550-C", "", sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := a.GetHighestPrice(context.Background(), "ETH-250516-2550-C", "", 5*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 115.8, got.MaxPrice)
	assert.Equal(t, "alpha", got.Exchange)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_GetLatestPrice(t *testing.T) {
	a, mock := setupMock(t)
	ts := time.Date(2025, 5, 11, 9, 1, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"pair_name", "exchange", "timestamp", "average_price", "min_price", "max_price"}).
		AddRow("ETH-250516-2550-C", "alpha", ts, 78.0, 77.2, 79.6)
	mock.ExpectQuery("ORDER BY timestamp DESC LIMIT 1").
		WithArgs("ETH-250516-2550-C", "alpha", sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := a.GetLatestPrice(context.Background(), "ETH-250516-2550-C", "alpha", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ts, got.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_GetLowestPrice_NoRows(t *testing.T) {
	a, mock := setupMock(t)
	mock.ExpectQuery("ORDER BY min_price ASC LIMIT 1").
		WithArgs("X", "alpha", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"pair_name", "exchange", "timestamp", "average_price", "min_price", "max_price"}))

	got, err := a.GetLowestPrice(context.Background(), "X", "alpha", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresAdapter_GetAveragePrice(t *testing.T) {
	a, mock := setupMock(t)
	mock.ExpectQuery("SELECT AVG\\(average_price\\)").
		WithArgs("X", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(42.5))

	avg, err := a.GetAveragePrice(context.Background(), "X", "", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 42.5, avg)

	mock.ExpectQuery("SELECT AVG\\(average_price\\)").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err = a.GetAveragePrice(context.Background(), "X", "", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, avg)
}
