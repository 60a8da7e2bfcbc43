// Package model defines shared data types used across the price engine.
//
// Conventions:
//   - Prices: float64 USD values, as parsed from upstream APIs
//   - Timestamps: time.Time, captured when an update is produced locally
//   - IDs: canonical asset ids in CoinGecko style (e.g. "ethereum")
package model
