package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, then applies variables from an optional
// .env file in the working directory and from the process environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnvOverrides(&cfg)

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) parseDurations() error {
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
		def  time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeoutStr, &c.Server.ReadTimeout, 10 * time.Second},
		{"server.write_timeout", c.Server.WriteTimeoutStr, &c.Server.WriteTimeout, 10 * time.Second},
		{"server.shutdown_timeout", c.Server.ShutdownTimeoutStr, &c.Server.ShutdownTimeout, 30 * time.Second},
		{"postgresql.conn_max_lifetime", c.PostgreSQL.ConnMaxLifetimeStr, &c.PostgreSQL.ConnMaxLifetime, 5 * time.Minute},
		{"data_retention.redis_ttl", c.DataRetention.RedisTTLStr, &c.DataRetention.RedisTTL, time.Minute},
		{"data_retention.aggregation_interval", c.DataRetention.AggregationIntervalStr, &c.DataRetention.AggregationInterval, time.Minute},
	}

	for _, d := range durations {
		if d.raw == "" {
			*d.dst = d.def
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}

	for i := range c.Exchanges {
		ex := &c.Exchanges[i]
		if ex.PollIntervalStr == "" {
			ex.PollInterval = time.Second
			continue
		}
		v, err := time.ParseDuration(ex.PollIntervalStr)
		if err != nil {
			return fmt.Errorf("invalid poll_interval for exchange %s: %w", ex.Name, err)
		}
		ex.PollInterval = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 4 << 20
	}
	if c.Workers.PerExchange <= 0 {
		c.Workers.PerExchange = 1
	}
	if c.Parser.Workers <= 0 {
		c.Parser.Workers = 1
	}
	if c.PostgreSQL.SSLMode == "" {
		c.PostgreSQL.SSLMode = "disable"
	}
	for i := range c.Exchanges {
		if c.Exchanges[i].Type == "" {
			c.Exchanges[i].Type = "tcp"
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) {
	// PostgreSQL
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.PostgreSQL.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.PostgreSQL.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.PostgreSQL.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.PostgreSQL.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.PostgreSQL.Database = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Exchanges: EXCHANGE1_HOST overrides the first entry and so on.
	for i := range cfg.Exchanges {
		if v := os.Getenv(fmt.Sprintf("EXCHANGE%d_HOST", i+1)); v != "" {
			cfg.Exchanges[i].Host = v
		}
		if v := os.Getenv(fmt.Sprintf("EXCHANGE%d_URL", i+1)); v != "" {
			cfg.Exchanges[i].URL = v
		}
	}

	// Server
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host, c.PostgreSQL.Port, c.PostgreSQL.User,
		c.PostgreSQL.Password, c.PostgreSQL.Database, c.PostgreSQL.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
