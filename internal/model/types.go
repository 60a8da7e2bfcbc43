package model

import "time"

// -----------------------------------------------------------------------------
// Static Types
// -----------------------------------------------------------------------------

// Asset describes one supported token. The set of assets is loaded at startup
// and never changes for the lifetime of the process.
type Asset struct {
	ID     string // Canonical id (e.g. "ethereum")
	Symbol string // Trading symbol (e.g. "ETH")
	Name   string // Display name

	// Provider-specific identifiers. An empty value means the provider
	// does not know this asset and adapters must skip it.
	CoinGeckoID      string // CoinGecko simple-price id
	BinanceSymbol    string // Binance pair symbol (e.g. "ETHUSDT"), REST and stream
	CryptoCompareSym string // CryptoCompare fsym (usually equals Symbol)

	// MirrorOf names another asset id whose price this asset always copies
	// (e.g. a wrapped or staked token tracking its underlying). Mirror
	// resolution is exactly one hop; an asset with MirrorOf set is never
	// fetched independently.
	MirrorOf string
}

// IsMirror reports whether this asset copies another asset's price.
func (a Asset) IsMirror() bool { return a.MirrorOf != "" }

// -----------------------------------------------------------------------------
// Live Types
// -----------------------------------------------------------------------------

// PriceRecord is the latest known price state for one asset.
type PriceRecord struct {
	USD          float64   // Last price in USD, never negative
	USD24hChange float64   // 24h change in percent, signed
	Volume24h    float64   // 24h USD volume, 0 if the source does not report it
	LastUpdate   time.Time // When this record was produced
	Source       string    // Provider or stream that produced it, for diagnostics
}

// NewerThan reports whether r should replace cur under the per-asset
// monotonicity rule: equal timestamps are accepted (later writer wins),
// strictly older ones are not.
func (r PriceRecord) NewerThan(cur PriceRecord) bool {
	return !r.LastUpdate.Before(cur.LastUpdate)
}

// Snapshot maps asset id to its latest price record at one instant.
type Snapshot map[string]PriceRecord

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, rec := range s {
		out[id] = rec
	}
	return out
}

// PriceUpdate is one accepted store mutation, consumed by the history writer.
type PriceUpdate struct {
	AssetID string
	Record  PriceRecord
}

// -----------------------------------------------------------------------------
// Wire Types
// -----------------------------------------------------------------------------

// RawQuote is a single asset quote as normalized by a provider adapter.
// Adapters translate their upstream response shape into RawQuote and nothing
// else; timestamps and sources are attached by the aggregator.
type RawQuote struct {
	USD          float64
	USD24hChange float64
	Volume24h    float64 // 0 if unknown
}

// RawTick is one parsed event from a streaming ticker feed.
type RawTick struct {
	StreamSymbol string    // Provider pair symbol (e.g. "ETHUSDT")
	Price        float64   // Last trade price in USD
	Change24h    float64   // 24h change in percent
	Volume24h    float64   // 24h USD volume
	ReceivedAt   time.Time // Local receive timestamp
}
