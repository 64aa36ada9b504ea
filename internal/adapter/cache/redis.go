package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tickerscan/internal/domain/model"
)

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// Option tunes the redis client before it connects.
type Option func(*redis.Options)

// WithPool sizes the connection pool. Zero values keep the client defaults.
func WithPool(size, minIdle int) Option {
	return func(o *redis.Options) {
		if size > 0 {
			o.PoolSize = size
		}
		if minIdle > 0 {
			o.MinIdleConns = minIdle
		}
	}
}

// NewRedisAdapter connects and pings. ttl bounds the lifetime of latest
// values; windows live twice as long.
func NewRedisAdapter(addr, password string, db int, ttl time.Duration, opts ...Option) (*RedisAdapter, error) {
	o := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	for _, opt := range opts {
		opt(o)
	}
	client := redis.NewClient(o)

	if err := ping(context.Background(), client); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisAdapter{
		client: client,
		ttl:    ttl,
	}, nil
}

// ping checks the connection and releases the client's pool when it fails.
func ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	return nil
}

// NewRedisAdapterFromClient wraps an existing client without pinging it.
func NewRedisAdapterFromClient(client *redis.Client, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, ttl: ttl}
}

func latestKey(exchange, symbol string) string {
	return fmt.Sprintf("latest:%s:%s", exchange, symbol)
}

func windowKey(exchange, symbol string) string {
	return fmt.Sprintf("window:%s:%s", exchange, symbol)
}

func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *RedisAdapter) SetLatestTicker(ctx context.Context, t model.Ticker) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal ticker: %w", err)
	}

	if err := a.client.Set(ctx, latestKey(t.Exchange, t.Symbol), data, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest ticker in redis: %w", err)
	}
	return nil
}

func (a *RedisAdapter) GetLatestTicker(ctx context.Context, symbol, exchange string) (*model.Ticker, error) {
	if exchange != "" {
		return a.getTicker(ctx, latestKey(exchange, symbol))
	}

	// Any exchange: the most recently received wins.
	var latest *model.Ticker
	iter := a.client.Scan(ctx, 0, latestKey("*", symbol), 0).Iterator()
	for iter.Next(ctx) {
		t, err := a.getTicker(ctx, iter.Val())
		if err != nil {
			return nil, err
		}
		if t != nil && (latest == nil || t.ReceivedAt.After(latest.ReceivedAt)) {
			latest = t
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	return latest, nil
}

func (a *RedisAdapter) getTicker(ctx context.Context, key string) (*model.Ticker, error) {
	data, err := a.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest ticker from redis: %w", err)
	}

	var t model.Ticker
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker: %w", err)
	}
	return &t, nil
}

// AddTickerToWindow adds the ticker to the per exchange and symbol sorted set
// scored by receive time in milliseconds.
func (a *RedisAdapter) AddTickerToWindow(ctx context.Context, t model.Ticker) error {
	key := windowKey(t.Exchange, t.Symbol)
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal ticker for window: %w", err)
	}

	z := redis.Z{
		Score:  float64(t.ReceivedAt.UnixMilli()),
		Member: data,
	}

	pipe := a.client.TxPipeline()
	pipe.ZAdd(ctx, key, z)
	pipe.Expire(ctx, key, a.ttl*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add ticker to window: %w", err)
	}
	return nil
}

// GetTickersInWindow returns the tickers received during the last TTL. An
// empty exchange collects the symbol across every exchange.
func (a *RedisAdapter) GetTickersInWindow(ctx context.Context, symbol, exchange string) ([]model.Ticker, error) {
	now := time.Now()
	minStr := strconv.FormatInt(now.Add(-a.ttl).UnixMilli(), 10)
	maxStr := strconv.FormatInt(now.UnixMilli(), 10)

	var keys []string
	if exchange != "" {
		keys = []string{windowKey(exchange, symbol)}
	} else {
		iter := a.client.Scan(ctx, 0, windowKey("*", symbol), 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan redis keys: %w", err)
		}
	}

	var out []model.Ticker
	for _, key := range keys {
		results, err := a.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
			Min: minStr,
			Max: maxStr,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("failed to get tickers from window %s: %w", key, err)
		}

		for _, item := range results {
			var t model.Ticker
			if err := json.Unmarshal([]byte(item), &t); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ticker from redis key %s: %w", key, err)
			}
			out = append(out, t)
		}
	}

	return out, nil
}

// DeleteOldTickers trims every window down to entries received after before.
func (a *RedisAdapter) DeleteOldTickers(ctx context.Context, before time.Time) error {
	max := strconv.FormatInt(before.UnixMilli(), 10)

	iter := a.client.Scan(ctx, 0, "window:*:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := a.client.ZRemRangeByScore(ctx, key, "-inf", "("+max).Err(); err != nil {
			return fmt.Errorf("failed to delete old tickers from %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate redis keys: %w", err)
	}

	return nil
}

func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
