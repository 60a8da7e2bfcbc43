package asset

import (
	"fmt"
	"strings"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// Registry is the validated, immutable set of supported assets.
type Registry struct {
	assets   []model.Asset
	byID     map[string]model.Asset
	byStream map[string]model.Asset   // upper-case pair symbol -> non-mirror asset
	mirrors  map[string][]model.Asset // target id -> assets mirroring it
}

// NewRegistry validates the asset list and builds lookup tables.
//
// Rules enforced:
//   - ids are non-empty and unique
//   - MirrorOf targets exist and are themselves not mirrors (one hop, no cycles)
func NewRegistry(assets []model.Asset) (*Registry, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("asset set is empty")
	}

	r := &Registry{
		assets:   make([]model.Asset, len(assets)),
		byID:     make(map[string]model.Asset, len(assets)),
		byStream: make(map[string]model.Asset),
		mirrors:  make(map[string][]model.Asset),
	}
	copy(r.assets, assets)

	for _, a := range r.assets {
		if a.ID == "" {
			return nil, fmt.Errorf("asset with symbol %q has empty id", a.Symbol)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate asset id %q", a.ID)
		}
		r.byID[a.ID] = a
	}

	for _, a := range r.assets {
		if a.MirrorOf != "" {
			target, ok := r.byID[a.MirrorOf]
			if !ok {
				return nil, fmt.Errorf("asset %q mirrors unknown asset %q", a.ID, a.MirrorOf)
			}
			if target.MirrorOf != "" {
				return nil, fmt.Errorf("asset %q mirrors %q which is itself a mirror", a.ID, a.MirrorOf)
			}
			r.mirrors[a.MirrorOf] = append(r.mirrors[a.MirrorOf], a)
			continue
		}
		if a.BinanceSymbol != "" {
			r.byStream[strings.ToUpper(a.BinanceSymbol)] = a
		}
	}

	return r, nil
}

// All returns every asset, mirrors included.
func (r *Registry) All() []model.Asset {
	out := make([]model.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// Primary returns the assets that are fetched independently (non-mirrors).
func (r *Registry) Primary() []model.Asset {
	out := make([]model.Asset, 0, len(r.assets))
	for _, a := range r.assets {
		if !a.IsMirror() {
			out = append(out, a)
		}
	}
	return out
}

// IDs returns every asset id, mirrors included.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a.ID)
	}
	return out
}

// ByID looks up an asset by canonical id.
func (r *Registry) ByID(id string) (model.Asset, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// ByStreamSymbol maps a stream pair symbol (e.g. "ETHUSDT") to its asset.
// Mirror assets are never returned here; they have no stream of their own.
func (r *Registry) ByStreamSymbol(sym string) (model.Asset, bool) {
	a, ok := r.byStream[strings.ToUpper(sym)]
	return a, ok
}

// Mirrors returns the assets whose price copies the given asset id.
func (r *Registry) Mirrors(id string) []model.Asset {
	return r.mirrors[id]
}

// StreamSymbols returns the pair symbols to subscribe on the ticker stream,
// one per primary asset that has one.
func (r *Registry) StreamSymbols() []string {
	out := make([]string, 0, len(r.byStream))
	for _, a := range r.assets {
		if !a.IsMirror() && a.BinanceSymbol != "" {
			out = append(out, strings.ToUpper(a.BinanceSymbol))
		}
	}
	return out
}

// Len returns the number of assets, mirrors included.
func (r *Registry) Len() int { return len(r.assets) }
