// Package stream maintains the live ticker feed.
//
// A Client wraps one WebSocket connection to the Binance combined stream; the
// Multiplexer owns the connection for the lifetime of the process, parses
// inbound ticks into canonical asset updates (fanning out to mirror assets),
// and reconnects with a fixed backoff whenever the transport drops.
// Connection errors are steady-state events here, not failures: consumers
// only ever see the staleness that the polling fallback compensates for.
package stream
