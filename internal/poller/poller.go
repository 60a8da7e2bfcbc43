package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/asset"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// Default timing values. The refresh interval doubles as the staleness
// window: an asset untouched for a full cycle is considered stale.
const (
	DefaultInterval   = 30 * time.Second
	DefaultStaleAfter = 30 * time.Second
)

// Source produces aggregated snapshots. Invalidate discards any cached
// snapshot so the next Snapshot call hits the providers again. Satisfied
// by *aggregate.Aggregator.
type Source interface {
	Snapshot(ctx context.Context) model.Snapshot
	Invalidate()
}

// Sink receives refreshed records and answers staleness queries. Satisfied
// by *store.Store.
type Sink interface {
	Update(id string, rec model.PriceRecord) bool
	Get(id string) (model.PriceRecord, bool)
}

// Config holds poller settings.
type Config struct {
	Interval   time.Duration // Refresh cadence (default: 30s)
	StaleAfter time.Duration // Age after which an asset forces a fresh fetch (default: 30s)
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
}

// Poller refreshes the store from the aggregator on a fixed interval.
type Poller struct {
	cfg      Config
	registry *asset.Registry
	source   Source
	sink     Sink
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New creates a Poller.
func New(cfg Config, registry *asset.Registry, source Source, sink Sink, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Poller{
		cfg:      cfg,
		registry: registry,
		source:   source,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
}

// Start performs one blocking refresh so callers never observe an empty
// store, then continues refreshing in the background until Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.refresh(p.ctx)

	p.wg.Add(1)
	go p.loop()

	p.logger.Info("poller started",
		"interval", p.cfg.Interval,
		"assets", p.registry.Len(),
	)
	return nil
}

// Stop halts the refresh loop. The in-flight cycle, if any, is allowed to
// complete.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	staleTicker := time.NewTicker(p.cfg.StaleAfter)
	defer staleTicker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.refresh(p.ctx)
		case <-staleTicker.C:
			p.refreshStale(p.ctx)
		}
	}
}

// refreshStale re-fetches when any asset has gone a full staleness window
// without an update. The source's snapshot cache is dropped first so the
// refresh cannot be satisfied by a snapshot as old as the stale records.
func (p *Poller) refreshStale(ctx context.Context) {
	stale := p.staleAssets()
	if len(stale) == 0 {
		return
	}

	p.logger.Warn("assets stale beyond window, forcing refresh",
		"stale", stale,
		"window", p.cfg.StaleAfter,
	)

	p.source.Invalidate()
	p.refresh(ctx)
}

// refresh applies one aggregated snapshot to the sink. The sink's own
// ordering rules discard anything older than what the stream already
// delivered.
func (p *Poller) refresh(ctx context.Context) {
	snap := p.source.Snapshot(ctx)

	applied := 0
	for id, rec := range snap {
		if p.sink.Update(id, rec) {
			applied++
		}
	}

	p.logger.Debug("refresh cycle complete",
		"fetched", len(snap),
		"applied", applied,
	)
}

// staleAssets returns every asset whose latest record is older than the
// staleness window, or is missing entirely.
func (p *Poller) staleAssets() []string {
	cutoff := p.now().Add(-p.cfg.StaleAfter)

	var stale []string
	for _, a := range p.registry.All() {
		rec, ok := p.sink.Get(a.ID)
		if !ok || rec.LastUpdate.Before(cutoff) {
			stale = append(stale, a.ID)
		}
	}
	return stale
}
