// Package server exposes the read-only HTTP API: current prices, optional
// price history, and a health endpoint.
package server
