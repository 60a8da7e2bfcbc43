// Package binance implements the Binance 24hr-ticker REST adapter, the
// second-priority source for poll snapshots.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider"
)

const providerName = "binance"

// DefaultBaseURL is the public Binance spot API.
const DefaultBaseURL = "https://api.binance.com/api/v3"

// Client fetches spot prices from the Binance /ticker/24hr endpoint, one
// request per pair symbol.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithConcurrency bounds the number of parallel per-symbol requests.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Binance client. An empty baseURL uses the public API.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      slog.Default(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements provider.Provider.
func (c *Client) Name() string { return providerName }

// ticker24h mirrors the fields we use from the /ticker/24hr response.
// Binance reports numbers as strings.
type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"` // base asset volume
}

// FetchSnapshot implements provider.Provider. Assets without a pair symbol
// (e.g. USDT itself) are skipped. Per-symbol failures are skipped too; the
// call fails only when not a single symbol could be quoted.
func (c *Client) FetchSnapshot(ctx context.Context, assets []model.Asset) (map[string]model.RawQuote, error) {
	type target struct {
		id     string
		symbol string
	}
	targets := make([]target, 0, len(assets))
	for _, a := range assets {
		if a.BinanceSymbol == "" {
			continue
		}
		targets = append(targets, target{id: a.ID, symbol: a.BinanceSymbol})
	}
	if len(targets) == 0 {
		return map[string]model.RawQuote{}, nil
	}

	var (
		mu      sync.Mutex
		out     = make(map[string]model.RawQuote, len(targets))
		lastErr *provider.Error
	)

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for _, tgt := range targets {
		wg.Add(1)
		go func(tgt target) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			quote, err := c.fetchSymbol(ctx, tgt.symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Debug("binance symbol fetch failed", "symbol", tgt.symbol, "err", err)
				lastErr = err
				return
			}
			out[tgt.id] = quote
		}(tgt)
	}
	wg.Wait()

	if len(out) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, provider.Classify(providerName, ctx.Err())
	}
	return out, nil
}

// fetchSymbol requests the 24hr ticker for one pair.
func (c *Client) fetchSymbol(ctx context.Context, symbol string) (model.RawQuote, *provider.Error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	reqURL := c.baseURL + "/ticker/24hr?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.RawQuote{}, provider.Classify(providerName, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.RawQuote{}, provider.Classify(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.RawQuote{}, provider.ClassifyStatus(providerName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RawQuote{}, provider.Classify(providerName, fmt.Errorf("read response: %w", err))
	}

	var t ticker24h
	if err := json.Unmarshal(body, &t); err != nil {
		return model.RawQuote{}, provider.BadResponse(providerName, fmt.Errorf("unmarshal %s: %w", symbol, err))
	}

	price, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return model.RawQuote{}, provider.BadResponse(providerName, fmt.Errorf("parse lastPrice %q: %w", t.LastPrice, err))
	}
	change, err := strconv.ParseFloat(t.PriceChangePercent, 64)
	if err != nil {
		return model.RawQuote{}, provider.BadResponse(providerName, fmt.Errorf("parse priceChangePercent %q: %w", t.PriceChangePercent, err))
	}

	// Base volume; USD volume is volume * price, as the wallet UI expects.
	var volumeUSD float64
	if v, err := strconv.ParseFloat(t.Volume, 64); err == nil {
		volumeUSD = v * price
	}

	return model.RawQuote{
		USD:          price,
		USD24hChange: change,
		Volume24h:    volumeUSD,
	}, nil
}
