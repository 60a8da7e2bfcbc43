package config

import (
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// EngineConfig is the root configuration for the price engine.
type EngineConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Stream     StreamConfig     `yaml:"stream"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Poller     PollerConfig     `yaml:"poller"`
	Database   DBConfig         `yaml:"database"`
	History    HistoryConfig    `yaml:"history"`
	Assets     []AssetConfig    `yaml:"assets"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ProvidersConfig holds settings for each upstream quote source, in
// failover priority order: CoinGecko first, then Binance REST, then
// CryptoCompare.
type ProvidersConfig struct {
	CoinGecko     CoinGeckoConfig     `yaml:"coingecko"`
	Binance       BinanceConfig       `yaml:"binance"`
	CryptoCompare CryptoCompareConfig `yaml:"cryptocompare"`
}

// CoinGeckoConfig holds CoinGecko REST settings.
type CoinGeckoConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// BinanceConfig holds Binance REST settings.
type BinanceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// CryptoCompareConfig holds CryptoCompare REST settings.
type CryptoCompareConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// StreamConfig holds the push-feed connection settings.
type StreamConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	BufferSize     int           `yaml:"buffer_size"`
}

// AggregatorConfig holds snapshot aggregation settings.
type AggregatorConfig struct {
	SnapshotTTL  time.Duration `yaml:"snapshot_ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// PollerConfig holds REST refresh settings.
type PollerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

// DBConfig holds the PostgreSQL connection for price history. Only used
// when history is enabled.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HistoryConfig holds the price-history batch writer settings.
type HistoryConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// AssetConfig describes one tracked asset. When the assets list is empty,
// the built-in set is used.
type AssetConfig struct {
	ID               string `yaml:"id"`
	Symbol           string `yaml:"symbol"`
	Name             string `yaml:"name"`
	CoinGeckoID      string `yaml:"coingecko_id"`
	BinanceSymbol    string `yaml:"binance_symbol"`
	CryptoCompareSym string `yaml:"cryptocompare_sym"`
	MirrorOf         string `yaml:"mirror_of"`
}

// ToModel converts the YAML shape into the canonical asset type.
func (a AssetConfig) ToModel() model.Asset {
	return model.Asset{
		ID:               a.ID,
		Symbol:           a.Symbol,
		Name:             a.Name,
		CoinGeckoID:      a.CoinGeckoID,
		BinanceSymbol:    a.BinanceSymbol,
		CryptoCompareSym: a.CryptoCompareSym,
		MirrorOf:         a.MirrorOf,
	}
}

// AssetList converts the configured assets to model assets.
func (c *EngineConfig) AssetList() []model.Asset {
	assets := make([]model.Asset, len(c.Assets))
	for i, a := range c.Assets {
		assets[i] = a.ToModel()
	}
	return assets
}
