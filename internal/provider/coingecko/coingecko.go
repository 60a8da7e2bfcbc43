// Package coingecko implements the CoinGecko simple-price adapter, the
// first-priority source for poll snapshots.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider"
)

const providerName = "coingecko"

// DefaultBaseURL is the public CoinGecko v3 API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches spot prices from the CoinGecko simple/price endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a CoinGecko client. An empty baseURL uses the public API.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements provider.Provider.
func (c *Client) Name() string { return providerName }

// simpleQuote mirrors one entry of the simple/price response.
type simpleQuote struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
	Volume24h float64 `json:"usd_24h_vol"`
}

// FetchSnapshot implements provider.Provider. All requested assets are
// batched into a single simple/price call.
func (c *Client) FetchSnapshot(ctx context.Context, assets []model.Asset) (map[string]model.RawQuote, error) {
	ids := make([]string, 0, len(assets))
	byGeckoID := make(map[string]string, len(assets)) // gecko id -> canonical id
	for _, a := range assets {
		if a.CoinGeckoID == "" {
			continue
		}
		ids = append(ids, a.CoinGeckoID)
		byGeckoID[a.CoinGeckoID] = a.ID
	}
	if len(ids) == 0 {
		return map[string]model.RawQuote{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_change", "true")
	query.Set("include_24hr_vol", "true")

	reqURL := c.baseURL + "/simple/price?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, provider.Classify(providerName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Classify(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ClassifyStatus(providerName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.Classify(providerName, fmt.Errorf("read response: %w", err))
	}

	var parsed map[string]simpleQuote
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, provider.BadResponse(providerName, fmt.Errorf("unmarshal response: %w", err))
	}

	out := make(map[string]model.RawQuote, len(parsed))
	for geckoID, q := range parsed {
		id, ok := byGeckoID[geckoID]
		if !ok {
			continue
		}
		out[id] = model.RawQuote{
			USD:          q.USD,
			USD24hChange: q.Change24h,
			Volume24h:    q.Volume24h,
		}
	}

	c.logger.Debug("coingecko snapshot", "requested", len(ids), "quoted", len(out))
	return out, nil
}
