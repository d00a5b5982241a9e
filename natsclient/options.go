package natsclient

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithMaxReconnects sets the maximum number of reconnection attempts
// (-1 for infinite).
func WithMaxReconnects(n int) Option {
	return func(c *Client) {
		c.maxReconnects = n
	}
}

// WithReconnectWait sets the wait time between reconnection attempts.
func WithReconnectWait(d time.Duration) Option {
	return func(c *Client) {
		c.reconnectWait = d
	}
}

// WithPingInterval sets the ping interval for connection liveness
// checks.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pingInterval = d
	}
}

// WithTimeout sets the dial timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithDrainTimeout caps how long Close waits for in-flight messages.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.drainTimeout = d
	}
}

// WithName sets the client name advertised to the server.
func WithName(name string) Option {
	return func(c *Client) {
		c.clientName = name
	}
}

// WithLogger sets the logger for connection events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "natsclient")
		}
	}
}

// WithStatusCallback registers a callback invoked on every status
// transition. The callback runs on its own goroutine.
func WithStatusCallback(fn func(ConnectionStatus)) Option {
	return func(c *Client) {
		c.onStatusChange = fn
	}
}
