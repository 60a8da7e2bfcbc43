// Command priced runs the live token price engine: it aggregates USD quotes
// from CoinGecko, Binance, and CryptoCompare, keeps them fresh over the
// Binance WebSocket stream with a polling fallback, and serves them over
// HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/aggregate"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/asset"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/buffer"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/config"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/database"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/history"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/poller"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider/binance"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider/coingecko"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider/cryptocompare"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/server"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/store"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/stream"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/version"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/priced.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting price engine",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Asset registry: configured set, or the built-in one
	assets := cfg.AssetList()
	if len(assets) == 0 {
		assets = asset.Default()
	}
	registry, err := asset.NewRegistry(assets)
	if err != nil {
		logger.Error("invalid asset configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("assets registered",
		"total", registry.Len(),
		"streamed", len(registry.StreamSymbols()),
	)

	// Price store, with a journal when history is enabled
	var storeOpts []store.Option
	var journal *buffer.Growable[model.PriceUpdate]
	if cfg.History.Enabled {
		journal = buffer.NewGrowable[model.PriceUpdate](cfg.History.BufferSize)
		storeOpts = append(storeOpts, store.WithJournal(journal))
	}
	priceStore := store.New(storeOpts...)

	// Optional price history pipeline
	var (
		histQuerier *history.Querier
		histWriter  *history.Writer
	)
	if cfg.History.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := history.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to prepare history schema", "error", err)
			os.Exit(1)
		}

		histQuerier = history.NewQuerier(pool)
		histWriter = history.NewWriter(history.Config{
			BatchSize:     cfg.History.BatchSize,
			FlushInterval: cfg.History.FlushInterval,
		}, journal, pool, logger)

		if err := histWriter.Start(ctx); err != nil {
			logger.Error("failed to start history writer", "error", err)
			os.Exit(1)
		}
		logger.Info("price history enabled")
	}

	// Providers in failover priority order
	providers := []provider.Provider{
		coingecko.New(cfg.Providers.CoinGecko.BaseURL,
			coingecko.WithTimeout(cfg.Providers.CoinGecko.Timeout),
			coingecko.WithLogger(logger),
		),
		binance.New(cfg.Providers.Binance.BaseURL,
			binance.WithTimeout(cfg.Providers.Binance.Timeout),
			binance.WithConcurrency(cfg.Providers.Binance.Concurrency),
			binance.WithLogger(logger),
		),
		cryptocompare.New(cfg.Providers.CryptoCompare.BaseURL,
			cryptocompare.WithTimeout(cfg.Providers.CryptoCompare.Timeout),
			cryptocompare.WithAPIKey(cfg.Providers.CryptoCompare.APIKey),
			cryptocompare.WithLogger(logger),
		),
	}

	aggregator := aggregate.New(aggregate.Config{
		SnapshotTTL:  cfg.Aggregator.SnapshotTTL,
		FetchTimeout: cfg.Aggregator.FetchTimeout,
	}, registry, providers, priceStore, logger)

	// Poller: the first refresh blocks so the API never starts empty
	pricePoller := poller.New(poller.Config{
		Interval:   cfg.Poller.Interval,
		StaleAfter: cfg.Poller.StaleAfter,
	}, registry, aggregator, priceStore, logger)

	if err := pricePoller.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	// Push stream
	multiplexer := stream.New(stream.Config{
		URL:            cfg.Stream.URL,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		PingInterval:   cfg.Stream.PingInterval,
		BufferSize:     cfg.Stream.BufferSize,
	}, registry, priceStore, logger)

	if err := multiplexer.Start(ctx); err != nil {
		logger.Error("failed to start stream", "error", err)
		os.Exit(1)
	}

	// HTTP API
	var histSource server.History
	if histQuerier != nil {
		histSource = histQuerier
	}
	httpServer := server.New(cfg.Server, registry, priceStore, histSource, multiplexer, logger)
	if err := httpServer.Start(ctx); err != nil {
		logger.Error("failed to start http server", "error", err)
		os.Exit(1)
	}

	logger.Info("price engine running",
		"addr", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", "error", err)
	}
	if err := multiplexer.Stop(shutdownCtx); err != nil {
		logger.Warn("stream shutdown error", "error", err)
	}
	if err := pricePoller.Stop(shutdownCtx); err != nil {
		logger.Warn("poller shutdown error", "error", err)
	}
	if histWriter != nil {
		if err := histWriter.Stop(shutdownCtx); err != nil {
			logger.Warn("history writer shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
