package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"tickerscan/internal/adapter/cache"
	"tickerscan/internal/adapter/handler"
	"tickerscan/internal/adapter/storage"
	"tickerscan/internal/application/service"
	"tickerscan/internal/application/usecase"
	"tickerscan/internal/concurrency/fanin"
	"tickerscan/internal/concurrency/worker"
	"tickerscan/internal/domain/model"
	"tickerscan/internal/domain/port"
	"tickerscan/internal/infrastructure/config"
	"tickerscan/internal/infrastructure/logger"
	"tickerscan/internal/infrastructure/server"
)

var (
	portFlag   = flag.Int("port", 0, "Port number")
	configPath = flag.String("config", "configs/config.yaml", "Path to the config file")
	modeFlag   = flag.String("mode", "live", "Initial data mode: live or test")
	demoFlag   = flag.Bool("demo", false, "Parse the embedded sample payload and exit")
	fileFlag   = flag.String("file", "", "Parse a payload file, print every ticker and exit")
	helpFlag   = flag.Bool("help", false, "Show help")
)

type App struct {
	config             *config.Config
	logger             *slog.Logger
	server             *server.Server
	storageAdapter     port.StoragePort
	cacheAdapter       port.CachePort
	aggregationService *service.AggregationService
	modeService        *service.ModeService
	exchanges          []port.ExchangePort
	cancel             context.CancelFunc
	pipeline           sync.WaitGroup
	mu                 sync.Mutex
}

func main() {
	flag.Parse()

	if *helpFlag {
		printUsage()
		os.Exit(0)
	}

	if *demoFlag {
		if err := runDemo(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *fileFlag != "" {
		if err := runFile(os.Stdout, *fileFlag); err != nil {
			fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	initialMode, err := parseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != 0 {
		cfg.Server.Port = *portFlag
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting tickerscan", "version", "1.0.0", "mode", initialMode)

	if err := run(cfg, initialMode, log); err != nil {
		log.Error("tickerscan stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, initialMode model.DataMode, log *slog.Logger) error {
	postgresAdapter, err := storage.NewPostgresAdapter(cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("initialize postgres: %w", err)
	}
	defer postgresAdapter.Close()
	postgresAdapter.SetPool(cfg.PostgreSQL.MaxOpenConns, cfg.PostgreSQL.MaxIdleConns, cfg.PostgreSQL.ConnMaxLifetime)

	if err := postgresAdapter.InitSchema(context.Background()); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	redisAdapter, err := cache.NewRedisAdapter(
		cfg.RedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.DataRetention.RedisTTL,
		cache.WithPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns),
	)
	if err != nil {
		return fmt.Errorf("initialize redis: %w", err)
	}
	defer redisAdapter.Close()

	tickerUseCase := usecase.NewTickerUseCase(postgresAdapter, redisAdapter)
	modeService := service.NewModeService(initialMode, log)
	aggregationService := service.NewAggregationService(redisAdapter, postgresAdapter, log, cfg.TradingPairs)

	aggregationService.Start(context.Background(), cfg.DataRetention.AggregationInterval)
	defer aggregationService.Stop()

	app := &App{
		config:             cfg,
		logger:             log,
		storageAdapter:     postgresAdapter,
		cacheAdapter:       redisAdapter,
		aggregationService: aggregationService,
		modeService:        modeService,
	}

	router := handler.NewRouter(
		handler.NewTickerHandler(tickerUseCase, log),
		handler.NewParseHandler(cfg.Server.MaxBodyBytes, cfg.Parser.Workers, log),
		handler.NewModeHandler(modeService, app.switchMode, log),
		handler.NewHealthHandler(postgresAdapter, redisAdapter, log),
	)

	srv := server.NewServer(cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, router, log)
	app.server = srv

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	app.mu.Lock()
	err = app.startDataProcessing()
	app.mu.Unlock()
	if err != nil {
		return fmt.Errorf("start data processing: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		log.Info("shutting down gracefully")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.shutdown()
			return err
		}
	}

	app.shutdown()
	return nil
}

// startDataProcessing builds the feeds for the current mode and wires them
// through the worker pool. The caller holds a.mu.
func (a *App) startDataProcessing() error {
	var exchanges []port.ExchangePort

	if a.modeService.GetCurrentMode() == model.LiveMode {
		for _, exCfg := range a.config.Exchanges {
			if !exCfg.Enabled {
				continue
			}
			ex, err := newExchange(exCfg, a.config.Parser.Workers, a.logger)
			if err != nil {
				return err
			}
			exchanges = append(exchanges, ex)
		}
	} else {
		exchanges = append(exchanges, newTestFeed(a.config.TradingPairs, a.logger))
	}

	if len(exchanges) == 0 {
		return errors.New("no exchanges enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.exchanges = exchanges

	names := make([]string, 0, len(exchanges))
	tickerChannels := make([]<-chan model.Ticker, 0, len(exchanges))
	for _, ex := range exchanges {
		if err := ex.Subscribe(a.config.TradingPairs); err != nil {
			a.logger.Warn("subscribe failed", "exchange", ex.Name(), "error", err)
		}
		names = append(names, ex.Name())
		tickerChannels = append(tickerChannels, superviseFeed(ctx, ex, a.logger))
	}
	a.aggregationService.SetExchanges(names)

	workers := a.config.Workers.PerExchange * len(exchanges)
	workerPool := worker.NewPool(workers, a.cacheAdapter, a.storageAdapter, a.logger)
	processedCh := workerPool.Start(ctx, fanin.FanIn(tickerChannels...))

	a.pipeline.Add(1)
	go func() {
		defer a.pipeline.Done()
		for range processedCh {
		}
	}()

	a.logger.Info("data processing started", "exchanges", len(exchanges), "workers", workers)
	return nil
}

// stopDataProcessing cancels the feeds and waits for the pipeline to drain.
// The caller holds a.mu.
func (a *App) stopDataProcessing() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	for _, ex := range a.exchanges {
		if err := ex.Close(); err != nil {
			a.logger.Error("failed to close exchange", "exchange", ex.Name(), "error", err)
		}
	}
	a.exchanges = nil
	a.pipeline.Wait()
}

func (a *App) switchMode(ctx context.Context, newMode model.DataMode) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("switching mode", "from", a.modeService.GetCurrentMode(), "to", newMode)

	a.stopDataProcessing()

	if err := a.modeService.SwitchMode(ctx, newMode); err != nil {
		return err
	}

	return a.startDataProcessing()
}

func (a *App) shutdown() {
	a.mu.Lock()
	a.stopDataProcessing()
	a.mu.Unlock()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
}

func parseMode(s string) (model.DataMode, error) {
	switch s {
	case "live":
		return model.LiveMode, nil
	case "test":
		return model.TestMode, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  tickerscan [--port <N>] [--config <path>] [--mode live|test]")
	fmt.Println("  tickerscan --demo")
	fmt.Println("  tickerscan --file <payload.json>")
	fmt.Println("  tickerscan --help")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --port N       Port number")
	fmt.Println("  --config PATH  Config file (default configs/config.yaml)")
	fmt.Println("  --mode MODE    Start in live or test mode (default live)")
	fmt.Println("  --demo         Parse the first embedded sample ticker and print it")
	fmt.Println("  --file PATH    Parse a payload file and print every ticker")
}
