// Package aggregate produces authoritative price snapshots by trying
// providers in priority order and falling back on failure.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/asset"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/cache"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/provider"
)

// snapshotKey is the single cache key for the full failover snapshot.
const snapshotKey = "snapshot"

// LastGood supplies previously accepted records for degraded fallback.
// Satisfied by *store.Store.
type LastGood interface {
	Get(id string) (model.PriceRecord, bool)
}

// Config holds aggregator settings.
type Config struct {
	SnapshotTTL  time.Duration // Cache window for the full snapshot (default: 30s)
	FetchTimeout time.Duration // Per-provider fetch budget (default: 10s)
}

// DefaultConfig returns sensible defaults. The 30s TTL matches the poll
// interval and the public APIs' rate-limit budgets.
func DefaultConfig() Config {
	return Config{
		SnapshotTTL:  30 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// Aggregator merges quotes from an ordered provider list into one snapshot.
// It never returns an error: when every provider fails it degrades to the
// last known good records, and to zero-value records when nothing was ever
// known, so callers can always render something.
type Aggregator struct {
	cfg       Config
	registry  *asset.Registry
	providers []provider.Provider // priority order, first wins
	lastGood  LastGood
	cache     *cache.Cache[model.Snapshot]
	logger    *slog.Logger

	now func() time.Time // test hook
}

// New creates an Aggregator. Providers are tried in the given order.
func New(cfg Config, registry *asset.Registry, providers []provider.Provider, lastGood LastGood, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultConfig().SnapshotTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	return &Aggregator{
		cfg:       cfg,
		registry:  registry,
		providers: providers,
		lastGood:  lastGood,
		cache:     cache.New[model.Snapshot](cfg.SnapshotTTL),
		logger:    logger,
		now:       time.Now,
	}
}

// Snapshot returns the current full snapshot, serving a cached one within
// the TTL window so repeated calls do not re-run the failover chain.
// Concurrent callers during a fetch share one upstream pass.
func (a *Aggregator) Snapshot(ctx context.Context) model.Snapshot {
	snap, err := a.cache.Get(ctx, snapshotKey, func(ctx context.Context) (model.Snapshot, error) {
		return a.fetch(ctx), nil
	})
	if err != nil {
		// Caller stopped waiting; degrade rather than surface the error.
		return a.degraded()
	}
	return snap.Clone()
}

// Invalidate drops the cached snapshot so the next Snapshot call runs the
// failover chain again regardless of the TTL.
func (a *Aggregator) Invalidate() {
	a.cache.Invalidate(snapshotKey)
}

// fetch runs the failover chain once.
//
// Each provider attempt is all-or-nothing: a failed provider contributes no
// quotes. Assets a provider did not know stay open for the next provider on
// the same pass (cross-provider complement). Whatever remains unresolved is
// filled from last known good records, then zeros, and mirrors are resolved
// last.
func (a *Aggregator) fetch(ctx context.Context) model.Snapshot {
	primary := a.registry.Primary()
	resolved := make(model.Snapshot, a.registry.Len())

	// Stamp every record with the pass start time, not the resolve time: a
	// pass that started before a stream tick but resolved after it must
	// carry the older timestamp so the store never regresses the tick.
	fetchedAt := a.now()

	for _, p := range a.providers {
		missing := make([]model.Asset, 0, len(primary))
		for _, as := range primary {
			if _, ok := resolved[as.ID]; !ok {
				missing = append(missing, as)
			}
		}
		if len(missing) == 0 {
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
		quotes, err := p.FetchSnapshot(fetchCtx, missing)
		cancel()

		if err != nil {
			a.logger.Warn("provider fetch failed, trying next",
				"provider", p.Name(),
				"err", err,
			)
			continue
		}
		if len(quotes) == 0 {
			a.logger.Warn("provider returned no quotes, trying next",
				"provider", p.Name(),
			)
			continue
		}

		for id, q := range quotes {
			if q.USD < 0 {
				continue
			}
			resolved[id] = model.PriceRecord{
				USD:          q.USD,
				USD24hChange: q.USD24hChange,
				Volume24h:    q.Volume24h,
				LastUpdate:   fetchedAt,
				Source:       p.Name(),
			}
		}
	}

	// Degraded fill for anything no provider could quote. Zero-value
	// records carry a zero LastUpdate so they never displace a real one.
	for _, as := range primary {
		if _, ok := resolved[as.ID]; ok {
			continue
		}
		if prev, ok := a.lastGood.Get(as.ID); ok {
			resolved[as.ID] = prev
			continue
		}
		a.logger.Warn("no price available, serving zero record", "asset", as.ID)
		resolved[as.ID] = model.PriceRecord{}
	}

	a.resolveMirrors(resolved)
	return resolved
}

// degraded builds a snapshot purely from last known good records and zeros,
// with no network activity.
func (a *Aggregator) degraded() model.Snapshot {
	snap := make(model.Snapshot, a.registry.Len())
	for _, as := range a.registry.Primary() {
		if prev, ok := a.lastGood.Get(as.ID); ok {
			snap[as.ID] = prev
		} else {
			snap[as.ID] = model.PriceRecord{}
		}
	}
	a.resolveMirrors(snap)
	return snap
}

// resolveMirrors copies each mirror target's resolved record onto the
// assets that track it.
func (a *Aggregator) resolveMirrors(snap model.Snapshot) {
	for _, as := range a.registry.All() {
		if !as.IsMirror() {
			continue
		}
		if target, ok := snap[as.MirrorOf]; ok {
			snap[as.ID] = target
		}
	}
}
