package stream

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// DefaultURL is the Binance combined-stream endpoint.
const DefaultURL = "wss://stream.binance.com:9443"

// TimestampedMessage wraps raw message data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig holds settings for a single WebSocket connection.
type ClientConfig struct {
	URL          string        // Full ws/wss URL including stream names
	PingInterval time.Duration // Keepalive ping cadence (default: 30s)
	PingTimeout  time.Duration // Staleness cutoff without any ping/pong (default: 90s)
	WriteTimeout time.Duration // Per-write deadline (default: 5s)
	BufferSize   int           // Messages channel capacity (default: 256)
}

func (c *ClientConfig) applyDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 90 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
}

// State is the multiplexer's connection state, for diagnostics and tests.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
