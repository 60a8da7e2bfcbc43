package coingecko

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider"
)

var testAssets = []model.Asset{
	{ID: "ethereum", Symbol: "ETH", CoinGeckoID: "ethereum"},
	{ID: "tether", Symbol: "USDT", CoinGeckoID: "tether"},
	{ID: "weth", Symbol: "WETH", MirrorOf: "ethereum"}, // no gecko id
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSnapshot(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Encode())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ethereum": {"usd": 3021.55, "usd_24h_change": -1.25, "usd_24h_vol": 12000000},
			"tether": {"usd": 1.0, "usd_24h_change": 0.01, "usd_24h_vol": 45000000}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithLogger(testLogger()))
	quotes, err := c.FetchSnapshot(context.Background(), testAssets)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	eth := quotes["ethereum"]
	if eth.USD != 3021.55 || eth.USD24hChange != -1.25 || eth.Volume24h != 12000000 {
		t.Errorf("ethereum quote = %+v", eth)
	}
	if _, ok := quotes["weth"]; ok {
		t.Error("asset without a coingecko id was quoted")
	}

	q, _ := gotQuery.Load().(string)
	for _, want := range []string{"ids=ethereum%2Ctether", "vs_currencies=usd", "include_24hr_change=true", "include_24hr_vol=true"} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestFetchSnapshotRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, WithLogger(testLogger()))
	_, err := c.FetchSnapshot(context.Background(), testAssets)

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Kind != provider.KindRateLimited {
		t.Errorf("Kind = %v, want KindRateLimited", perr.Kind)
	}
	if perr.Provider != "coingecko" {
		t.Errorf("Provider = %q, want coingecko", perr.Provider)
	}
}

func TestFetchSnapshotServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, WithLogger(testLogger()))
	_, err := c.FetchSnapshot(context.Background(), testAssets)

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Kind != provider.KindUnreachable {
		t.Errorf("Kind = %v, want KindUnreachable", perr.Kind)
	}
}

func TestFetchSnapshotBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithLogger(testLogger()))
	_, err := c.FetchSnapshot(context.Background(), testAssets)

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Kind != provider.KindBadResponse {
		t.Errorf("Kind = %v, want KindBadResponse", perr.Kind)
	}
}

func TestFetchSnapshotNoEligibleAssets(t *testing.T) {
	c := New("http://unreachable.test", WithLogger(testLogger()))
	quotes, err := c.FetchSnapshot(context.Background(), []model.Asset{
		{ID: "weth", Symbol: "WETH", MirrorOf: "ethereum"},
	})
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("got %d quotes, want 0", len(quotes))
	}
}
