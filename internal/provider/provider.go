package provider

import (
	"context"

	"github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"
)

// Provider fetches a point-in-time quote snapshot from one upstream source.
type Provider interface {
	// Name identifies the provider in records and logs (e.g. "coingecko").
	Name() string

	// FetchSnapshot returns quotes keyed by canonical asset id for the
	// assets the provider knows. Assets the provider cannot quote are
	// simply absent from the result; that is not an error. A returned
	// error is always a *Error.
	FetchSnapshot(ctx context.Context, assets []model.Asset) (map[string]model.RawQuote, error)
}
