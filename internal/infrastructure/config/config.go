package config

import "time"

type Config struct {
	Server struct {
		Port               int           `yaml:"port"`
		ReadTimeoutStr     string        `yaml:"read_timeout"`
		WriteTimeoutStr    string        `yaml:"write_timeout"`
		ShutdownTimeoutStr string        `yaml:"shutdown_timeout"`
		MaxBodyBytes       int64         `yaml:"max_body_bytes"`
		ReadTimeout        time.Duration `yaml:"-"`
		WriteTimeout       time.Duration `yaml:"-"`
		ShutdownTimeout    time.Duration `yaml:"-"`
	} `yaml:"server"`

	PostgreSQL struct {
		Host               string        `yaml:"host"`
		Port               int           `yaml:"port"`
		User               string        `yaml:"user"`
		Password           string        `yaml:"password"`
		Database           string        `yaml:"database"`
		SSLMode            string        `yaml:"sslmode"`
		MaxOpenConns       int           `yaml:"max_open_conns"`
		MaxIdleConns       int           `yaml:"max_idle_conns"`
		ConnMaxLifetimeStr string        `yaml:"conn_max_lifetime"`
		ConnMaxLifetime    time.Duration `yaml:"-"`
	} `yaml:"postgresql"`

	Redis struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Password     string `yaml:"password"`
		DB           int    `yaml:"db"`
		PoolSize     int    `yaml:"pool_size"`
		MinIdleConns int    `yaml:"min_idle_conns"`
	} `yaml:"redis"`

	Exchanges []Exchange `yaml:"exchanges"`

	TradingPairs []string `yaml:"trading_pairs"`

	Parser struct {
		Workers int `yaml:"workers"`
	} `yaml:"parser"`

	Workers struct {
		PerExchange int `yaml:"per_exchange"`
	} `yaml:"workers"`

	DataRetention struct {
		RedisTTLStr            string        `yaml:"redis_ttl"`
		AggregationIntervalStr string        `yaml:"aggregation_interval"`
		RedisTTL               time.Duration `yaml:"-"`
		AggregationInterval    time.Duration `yaml:"-"`
	} `yaml:"data_retention"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Exchange describes one ticker feed. Type is "tcp" (Host/Port), "ws" (URL)
// or "rest" (URL polled every PollInterval).
type Exchange struct {
	Name            string        `yaml:"name"`
	Type            string        `yaml:"type"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	URL             string        `yaml:"url"`
	PollIntervalStr string        `yaml:"poll_interval"`
	PollInterval    time.Duration `yaml:"-"`
	Enabled         bool          `yaml:"enabled"`
}
