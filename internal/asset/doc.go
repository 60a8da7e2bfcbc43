// Package asset holds the immutable registry of supported tokens.
//
// The registry is built once at startup from configuration (or the built-in
// default set) and provides the lookups the rest of the engine needs: by
// canonical id, by stream pair symbol, and mirror fan-out (which assets copy
// a given asset's price).
package asset
