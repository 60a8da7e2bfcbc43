// Package provider defines the uniform contract for upstream price sources.
//
// Each adapter (coingecko, binance, cryptocompare) builds its own request,
// parses its own response shape, and translates upstream failures into a
// *provider.Error with a classified kind. Adapters never retry; retry and
// failover policy belongs to the aggregator.
package provider
