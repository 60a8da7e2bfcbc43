package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/asset"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/config"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/history"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/stream"
)

// Prices answers current-price reads. Satisfied by *store.Store.
type Prices interface {
	Snapshot() model.Snapshot
	Len() int
}

// History answers range queries. Satisfied by *history.Querier; nil when
// history is disabled.
type History interface {
	Range(ctx context.Context, assetID string, from, to time.Time) ([]history.PricePoint, error)
}

// StreamStatus reports push-feed connection state. Satisfied by
// *stream.Multiplexer.
type StreamStatus interface {
	State() stream.State
}

// Server is the HTTP API.
type Server struct {
	cfg      config.ServerConfig
	registry *asset.Registry
	prices   Prices
	history  History
	status   StreamStatus
	logger   *slog.Logger

	srv *http.Server
}

// New creates a Server. history may be nil when persistence is disabled;
// status may be nil when the stream is not running.
func New(cfg config.ServerConfig, registry *asset.Registry, prices Prices, hist History, status StreamStatus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		registry: registry,
		prices:   prices,
		history:  hist,
		status:   status,
		logger:   logger,
	}

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices", s.handlePrices)
	mux.HandleFunc("GET /prices/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return withCORS(mux)
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.Info("http server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// priceEntry is the wire shape of one asset's current price.
type priceEntry struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	Volume24h    float64 `json:"volume_24h"`
	LastUpdate   int64   `json:"last_update"`
	Source       string  `json:"source,omitempty"`
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	snap := s.prices.Snapshot()

	out := make(map[string]priceEntry, len(snap))
	for id, rec := range snap {
		entry := priceEntry{
			USD:          rec.USD,
			USD24hChange: rec.USD24hChange,
			Volume24h:    rec.Volume24h,
			Source:       rec.Source,
		}
		if !rec.LastUpdate.IsZero() {
			entry.LastUpdate = rec.LastUpdate.UnixMilli()
		}
		out[id] = entry
	}

	writeJSON(w, http.StatusOK, out)
}

// historyResponse wraps the points so an empty result still renders as
// {"prices": []}.
type historyResponse struct {
	Prices []history.PricePoint `json:"prices"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return
	}
	if _, ok := s.registry.ByID(id); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown asset %q", id))
		return
	}

	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	resp := historyResponse{Prices: []history.PricePoint{}}
	if s.history != nil {
		to := time.Now()
		from := to.Add(-time.Duration(hours) * time.Hour)

		points, err := s.history.Range(r.Context(), id, from, to)
		if err != nil {
			s.logger.Error("history query failed", "asset", id, "error", err)
			writeError(w, http.StatusInternalServerError, "history query failed")
			return
		}
		if points != nil {
			resp.Prices = points
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	tracked := s.prices.Len()
	health.Components["store"] = map[string]any{"assets": tracked}
	if tracked == 0 {
		// Nothing cached at all: the API has no data to serve.
		health.Status = "unhealthy"
	}

	if s.status != nil {
		state := s.status.State()
		health.Components["stream"] = state.String()
		if state != stream.StateOpen && health.Status == "healthy" {
			health.Status = "degraded"
		}
	}

	health.Components["history"] = s.history != nil

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// withCORS allows browser wallets on other origins to read the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
