package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerHost         = "0.0.0.0"
	DefaultServerPort         = 8080
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 10 * time.Second
	DefaultCoinGeckoURL       = "https://api.coingecko.com/api/v3"
	DefaultBinanceURL         = "https://api.binance.com/api/v3"
	DefaultCryptoCompareURL   = "https://min-api.cryptocompare.com/data"
	DefaultProviderTimeout    = 10 * time.Second
	DefaultBinanceConcurrency = 4
	DefaultStreamURL          = "wss://stream.binance.com:9443"
	DefaultReconnectDelay     = 5 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultStreamBufferSize   = 256
	DefaultSnapshotTTL        = 30 * time.Second
	DefaultFetchTimeout       = 10 * time.Second
	DefaultPollInterval       = 30 * time.Second
	DefaultStaleAfter         = 30 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 500
	DefaultFlushInterval      = 5 * time.Second
	DefaultHistoryBufferSize  = 10000
)

func (c *EngineConfig) applyDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Provider defaults
	if c.Providers.CoinGecko.BaseURL == "" {
		c.Providers.CoinGecko.BaseURL = DefaultCoinGeckoURL
	}
	if c.Providers.CoinGecko.Timeout == 0 {
		c.Providers.CoinGecko.Timeout = DefaultProviderTimeout
	}
	if c.Providers.Binance.BaseURL == "" {
		c.Providers.Binance.BaseURL = DefaultBinanceURL
	}
	if c.Providers.Binance.Timeout == 0 {
		c.Providers.Binance.Timeout = DefaultProviderTimeout
	}
	if c.Providers.Binance.Concurrency == 0 {
		c.Providers.Binance.Concurrency = DefaultBinanceConcurrency
	}
	if c.Providers.CryptoCompare.BaseURL == "" {
		c.Providers.CryptoCompare.BaseURL = DefaultCryptoCompareURL
	}
	if c.Providers.CryptoCompare.Timeout == 0 {
		c.Providers.CryptoCompare.Timeout = DefaultProviderTimeout
	}

	// Stream defaults
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}

	// Aggregator defaults
	if c.Aggregator.SnapshotTTL == 0 {
		c.Aggregator.SnapshotTTL = DefaultSnapshotTTL
	}
	if c.Aggregator.FetchTimeout == 0 {
		c.Aggregator.FetchTimeout = DefaultFetchTimeout
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.StaleAfter == 0 {
		c.Poller.StaleAfter = DefaultStaleAfter
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// History defaults
	if c.History.BatchSize == 0 {
		c.History.BatchSize = DefaultBatchSize
	}
	if c.History.FlushInterval == 0 {
		c.History.FlushInterval = DefaultFlushInterval
	}
	if c.History.BufferSize == 0 {
		c.History.BufferSize = DefaultHistoryBufferSize
	}
}
