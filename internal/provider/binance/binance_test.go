package binance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider"
)

var testAssets = []model.Asset{
	{ID: "ethereum", Symbol: "ETH", BinanceSymbol: "ETHUSDT"},
	{ID: "chainlink", Symbol: "LINK", BinanceSymbol: "LINKUSDT"},
	{ID: "tether", Symbol: "USDT"}, // no pair against USDT
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tickerHandler(t *testing.T, prices map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		price, ok := prices[symbol]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"code":-1121,"msg":"Invalid symbol."}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"symbol":%q,"lastPrice":%q,"priceChangePercent":"2.5","volume":"100"}`, symbol, price)
	}
}

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(tickerHandler(t, map[string]string{
		"ETHUSDT":  "3021.55",
		"LINKUSDT": "14.20",
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
	if eth.USD != 3021.55 || eth.USD24hChange != 2.5 {
		t.Errorf("ethereum quote = %+v", eth)
	}
	// USD volume is base volume times price.
	if want := 100 * 3021.55; eth.Volume24h != want {
		t.Errorf("Volume24h = %v, want %v", eth.Volume24h, want)
	}
	if _, ok := quotes["tether"]; ok {
		t.Error("asset without a pair symbol was quoted")
	}
}

func TestFetchSnapshotPartialFailure(t *testing.T) {
	// Only ETHUSDT resolves; LINKUSDT errors. A partial result is still a
	// success.
	srv := httptest.NewServer(tickerHandler(t, map[string]string{
		"ETHUSDT": "3021.55",
	}))
	defer srv.Close()

	c := New(srv.URL, WithLogger(testLogger()))
	quotes, err := c.FetchSnapshot(context.Background(), testAssets)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if _, ok := quotes["ethereum"]; !ok {
		t.Error("ethereum missing from partial result")
	}
}

func TestFetchSnapshotTotalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
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

func TestFetchSnapshotBadPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"ETHUSDT","lastPrice":"not-a-number","priceChangePercent":"0","volume":"0"}`)
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

func TestFetchSnapshotBoundedConcurrency(t *testing.T) {
	var inflight, peak atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		symbol := r.URL.Query().Get("symbol")
		fmt.Fprintf(w, `{"symbol":%q,"lastPrice":"1.0","priceChangePercent":"0","volume":"0"}`, symbol)
	}))
	defer srv.Close()

	assets := make([]model.Asset, 20)
	for i := range assets {
		assets[i] = model.Asset{
			ID:            fmt.Sprintf("asset-%d", i),
			Symbol:        fmt.Sprintf("A%d", i),
			BinanceSymbol: fmt.Sprintf("A%dUSDT", i),
		}
	}

	c := New(srv.URL, WithConcurrency(2), WithLogger(testLogger()))
	quotes, err := c.FetchSnapshot(context.Background(), assets)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if len(quotes) != 20 {
		t.Errorf("got %d quotes, want 20", len(quotes))
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrent requests = %d, want <= 2", p)
	}
}
