// Package cryptocompare implements the CryptoCompare pricemultifull adapter,
// the last-resort source for poll snapshots.
package cryptocompare

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

const providerName = "cryptocompare"

// DefaultBaseURL is the public CryptoCompare min-api.
const DefaultBaseURL = "https://min-api.cryptocompare.com/data"

// Client fetches spot prices from the CryptoCompare pricemultifull endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithAPIKey sets the optional API key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a CryptoCompare client. An empty baseURL uses the public API.
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

// fullQuote mirrors the RAW.<FSYM>.USD entry of pricemultifull.
type fullQuote struct {
	Price        float64 `json:"PRICE"`
	ChangePct24h float64 `json:"CHANGEPCT24HOUR"`
	Volume24hTo  float64 `json:"TOTALVOLUME24HTO"`
}

// FetchSnapshot implements provider.Provider. All requested assets are
// batched into a single pricemultifull call.
func (c *Client) FetchSnapshot(ctx context.Context, assets []model.Asset) (map[string]model.RawQuote, error) {
	fsyms := make([]string, 0, len(assets))
	bySym := make(map[string]string, len(assets)) // fsym -> canonical id
	for _, a := range assets {
		sym := a.CryptoCompareSym
		if sym == "" {
			continue
		}
		fsyms = append(fsyms, sym)
		bySym[strings.ToUpper(sym)] = a.ID
	}
	if len(fsyms) == 0 {
		return map[string]model.RawQuote{}, nil
	}

	query := url.Values{}
	query.Set("fsyms", strings.Join(fsyms, ","))
	query.Set("tsyms", "USD")

	reqURL := c.baseURL + "/pricemultifull?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, provider.Classify(providerName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

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

	var parsed struct {
		Raw map[string]map[string]fullQuote `json:"RAW"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, provider.BadResponse(providerName, fmt.Errorf("unmarshal response: %w", err))
	}
	if parsed.Raw == nil {
		// CryptoCompare reports errors as 200 with a Response/Message body.
		return nil, provider.BadResponse(providerName, fmt.Errorf("response has no RAW section"))
	}

	out := make(map[string]model.RawQuote, len(parsed.Raw))
	for sym, quotes := range parsed.Raw {
		id, ok := bySym[strings.ToUpper(sym)]
		if !ok {
			continue
		}
		q, ok := quotes["USD"]
		if !ok {
			continue
		}
		out[id] = model.RawQuote{
			USD:          q.Price,
			USD24hChange: q.ChangePct24h,
			Volume24h:    q.Volume24hTo,
		}
	}

	c.logger.Debug("cryptocompare snapshot", "requested", len(fsyms), "quoted", len(out))
	return out, nil
}
