package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"tickerscan/internal/domain/model"
)

type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(connStr string) (*PostgresAdapter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresAdapter{db: db}, nil
}

// NewPostgresAdapterFromDB wraps an already opened handle.
func NewPostgresAdapterFromDB(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

func (a *PostgresAdapter) SetPool(maxOpen, maxIdle int, lifetime time.Duration) {
	a.db.SetMaxOpenConns(maxOpen)
	a.db.SetMaxIdleConns(maxIdle)
	a.db.SetConnMaxLifetime(lifetime)
}

func (a *PostgresAdapter) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS aggregated_prices (
		id SERIAL PRIMARY KEY,
		pair_name VARCHAR(64) NOT NULL,
		exchange VARCHAR(50) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		average_price DOUBLE PRECISION NOT NULL,
		min_price DOUBLE PRECISION NOT NULL,
		max_price DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_pair_exchange_timestamp ON aggregated_prices(pair_name, exchange, timestamp);
	`
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

const insertAggregated = `INSERT INTO aggregated_prices (pair_name, exchange, timestamp, average_price, min_price, max_price) VALUES ($1, $2, $3, $4, $5, $6)`

// SaveAggregatedPrices writes the batch in a single transaction.
func (a *PostgresAdapter) SaveAggregatedPrices(ctx context.Context, prices []model.AggregatedPrice) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertAggregated)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, p.PairName, p.Exchange, p.Timestamp, p.AveragePrice, p.MinPrice, p.MaxPrice); err != nil {
			return fmt.Errorf("failed to insert aggregated price for %s/%s: %w", p.Exchange, p.PairName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit aggregated prices: %w", err)
	}
	return nil
}

const selectAggregated = `SELECT pair_name, exchange, timestamp, average_price, min_price, max_price
	FROM aggregated_prices
	WHERE pair_name = $1 AND ($2 = '' OR exchange = $2) AND timestamp >= $3`

func (a *PostgresAdapter) GetHighestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	return a.queryOne(ctx, selectAggregated+` ORDER BY max_price DESC LIMIT 1`, symbol, exchange, period)
}

func (a *PostgresAdapter) GetLowestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	return a.queryOne(ctx, selectAggregated+` ORDER BY min_price ASC LIMIT 1`, symbol, exchange, period)
}

// GetLatestPrice returns the most recent aggregate within period.
func (a *PostgresAdapter) GetLatestPrice(ctx context.Context, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	return a.queryOne(ctx, selectAggregated+` ORDER BY timestamp DESC LIMIT 1`, symbol, exchange, period)
}

func (a *PostgresAdapter) queryOne(ctx context.Context, query, symbol, exchange string, period time.Duration) (*model.AggregatedPrice, error) {
	since := time.Now().UTC().Add(-period)

	var p model.AggregatedPrice
	err := a.db.QueryRowContext(ctx, query, symbol, exchange, since).Scan(
		&p.PairName, &p.Exchange, &p.Timestamp, &p.AveragePrice, &p.MinPrice, &p.MaxPrice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query aggregated price: %w", err)
	}
	return &p, nil
}

func (a *PostgresAdapter) GetAveragePrice(ctx context.Context, symbol, exchange string, period time.Duration) (float64, error) {
	since := time.Now().UTC().Add(-period)

	var avg sql.NullFloat64
	err := a.db.QueryRowContext(ctx,
		`SELECT AVG(average_price) FROM aggregated_prices WHERE pair_name = $1 AND ($2 = '' OR exchange = $2) AND timestamp >= $3`,
		symbol, exchange, since,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to query average price: %w", err)
	}
	return avg.Float64, nil
}

func (a *PostgresAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}
