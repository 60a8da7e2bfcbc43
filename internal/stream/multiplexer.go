package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/asset"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// Source identifies stream-produced records in the store.
const Source = "binance-ws"

// Sink receives canonical updates from the multiplexer. Satisfied by
// *store.Store.
type Sink interface {
	Update(id string, rec model.PriceRecord) bool
}

// Config holds multiplexer settings.
type Config struct {
	URL            string        // Stream endpoint base (default: DefaultURL)
	ReconnectDelay time.Duration // Fixed wait before reconnecting (default: 5s)
	PingInterval   time.Duration // Keepalive cadence (default: 30s)
	BufferSize     int           // Inbound message buffer (default: 256)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:            DefaultURL,
		ReconnectDelay: 5 * time.Second,
		PingInterval:   30 * time.Second,
		BufferSize:     256,
	}
}

// Multiplexer owns the ticker connection for the process lifetime: it maps
// inbound ticks to canonical asset ids, fans ETH-derivative updates out from
// the same tick, and reconnects forever on failure.
type Multiplexer struct {
	cfg      Config
	registry *asset.Registry
	sink     Sink
	logger   *slog.Logger

	state atomic.Int32

	mu     sync.Mutex
	client Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// newClient builds a connection; replaceable in tests.
	newClient func(cfg ClientConfig, logger *slog.Logger) Client
}

// New creates a Multiplexer.
func New(cfg Config, registry *asset.Registry, sink Sink, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	return &Multiplexer{
		cfg:       cfg,
		registry:  registry,
		sink:      sink,
		logger:    logger,
		newClient: NewClient,
	}
}

// Start opens the stream connection in the background and keeps it alive
// until Stop. It returns an error only when there is nothing to subscribe.
func (m *Multiplexer) Start(ctx context.Context) error {
	symbols := m.registry.StreamSymbols()
	if len(symbols) == 0 {
		return fmt.Errorf("no stream symbols configured")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run(m.streamURL(symbols))

	m.logger.Info("stream multiplexer started",
		"symbols", len(symbols),
		"reconnect_delay", m.cfg.ReconnectDelay,
	)
	return nil
}

// Stop closes the connection and stops all reconnect timers. When Stop
// returns, no further sink writes will occur.
func (m *Multiplexer) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	if m.client != nil {
		m.client.Close()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.setState(StateStopped)
		m.logger.Info("stream multiplexer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current connection state.
func (m *Multiplexer) State() State {
	return State(m.state.Load())
}

// streamURL builds the combined-stream URL for the subscribed symbols.
func (m *Multiplexer) streamURL(symbols []string) string {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + "@ticker"
	}
	return m.cfg.URL + "/stream?streams=" + strings.Join(streams, "/")
}

// run is the permanent connect/consume/reconnect loop.
func (m *Multiplexer) run(url string) {
	defer m.wg.Done()

	for {
		m.setState(StateConnecting)

		c := m.newClient(ClientConfig{
			URL:          url,
			PingInterval: m.cfg.PingInterval,
			BufferSize:   m.cfg.BufferSize,
		}, m.logger)

		if err := c.Connect(m.ctx); err != nil {
			m.logger.Warn("stream connect failed", "err", err)
			if !m.waitReconnect() {
				return
			}
			continue
		}

		m.mu.Lock()
		m.client = c
		m.mu.Unlock()
		m.setState(StateOpen)
		m.logger.Info("stream connected")

		m.consume(c)

		c.Close()
		m.setState(StateClosed)

		if !m.waitReconnect() {
			return
		}
	}
}

// consume drains one connection until it fails or the multiplexer stops.
func (m *Multiplexer) consume(c Client) {
	for {
		select {
		case <-m.ctx.Done():
			return
		case msg := <-c.Messages():
			m.handleMessage(msg)
		case err := <-c.Errors():
			m.logger.Warn("stream connection lost", "err", err)
			return
		}
	}
}

// waitReconnect sleeps the fixed backoff. Returns false when stopping.
func (m *Multiplexer) waitReconnect() bool {
	select {
	case <-m.ctx.Done():
		return false
	default:
	}

	m.setState(StateReconnecting)
	select {
	case <-m.ctx.Done():
		return false
	case <-time.After(m.cfg.ReconnectDelay):
		return true
	}
}

// envelope is the combined-stream wrapper: {"stream":"...","data":{...}}.
type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tickerEvent holds the fields we use from a 24hr ticker event. Binance
// reports numbers as strings.
type tickerEvent struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	ChangePct string `json:"P"`
	Volume    string `json:"v"` // base asset volume
}

// handleMessage parses one raw message. Malformed messages are dropped and
// logged; they are never fatal to the connection.
func (m *Multiplexer) handleMessage(msg TimestampedMessage) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		m.logger.Warn("dropping malformed stream message", "err", err)
		return
	}
	if len(env.Data) == 0 {
		// Subscription acks and pong payloads arrive without a data
		// section; they are not price data.
		return
	}

	tick, err := parseTick(env.Data, msg.ReceivedAt)
	if err != nil {
		m.logger.Warn("dropping malformed tick", "stream", env.Stream, "err", err)
		return
	}

	m.apply(tick)
}

// parseTick converts a ticker event payload into a RawTick.
func parseTick(data []byte, receivedAt time.Time) (model.RawTick, error) {
	var ev tickerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return model.RawTick{}, fmt.Errorf("unmarshal ticker event: %w", err)
	}
	if ev.Symbol == "" {
		return model.RawTick{}, fmt.Errorf("ticker event has no symbol")
	}

	price, err := strconv.ParseFloat(ev.LastPrice, 64)
	if err != nil {
		return model.RawTick{}, fmt.Errorf("parse last price %q: %w", ev.LastPrice, err)
	}
	change, err := strconv.ParseFloat(ev.ChangePct, 64)
	if err != nil {
		return model.RawTick{}, fmt.Errorf("parse change pct %q: %w", ev.ChangePct, err)
	}

	var volumeUSD float64
	if v, err := strconv.ParseFloat(ev.Volume, 64); err == nil {
		volumeUSD = v * price
	}

	return model.RawTick{
		StreamSymbol: ev.Symbol,
		Price:        price,
		Change24h:    change,
		Volume24h:    volumeUSD,
		ReceivedAt:   receivedAt,
	}, nil
}

// apply maps a tick to its canonical asset and writes it to the sink,
// propagating the same tick to every asset mirroring the target.
func (m *Multiplexer) apply(tick model.RawTick) {
	a, ok := m.registry.ByStreamSymbol(tick.StreamSymbol)
	if !ok {
		m.logger.Debug("tick for unknown symbol", "symbol", tick.StreamSymbol)
		return
	}

	rec := model.PriceRecord{
		USD:          tick.Price,
		USD24hChange: tick.Change24h,
		Volume24h:    tick.Volume24h,
		LastUpdate:   tick.ReceivedAt,
		Source:       Source,
	}

	m.sink.Update(a.ID, rec)
	for _, mirror := range m.registry.Mirrors(a.ID) {
		m.sink.Update(mirror.ID, rec)
	}
}

func (m *Multiplexer) setState(s State) {
	m.state.Store(int32(s))
}
