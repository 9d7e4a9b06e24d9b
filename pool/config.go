// Package pool implements L4.a: a bounded connection pool for one server,
// with lazy creation, idle recycling and exponential-backoff retry around
// acquire, grounded in original_source/src/pool.rs and adapted onto
// github.com/avast/retry-go/v4 the way
// internal/usenet/usenet_reader.go's downloadSegmentWithRetry uses it.
package pool

import "time"

// RetryConfig mirrors original_source/src/pool.rs's RetryConfig exactly:
// defaults of 3 retries, 100ms initial backoff, 10s max backoff, 2x
// multiplier, jitter enabled.
type RetryConfig struct {
	MaxRetries      uint
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiplier float64
	Jitter          bool
}

// DefaultRetryConfig returns the reference defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:     100 * time.Millisecond,
		MaxBackoff:         10 * time.Second,
		BackoffMultiplier:  2.0,
		Jitter:             true,
	}
}

// NoRetryConfig disables retrying entirely.
func NoRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 0, InitialBackoff: 0, MaxBackoff: 0, BackoffMultiplier: 1, Jitter: false}
}

// Config describes one pool's sizing and lifecycle knobs (§4.5, §6).
type Config struct {
	MaxSize        int
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	Retry          RetryConfig
}

// DefaultConfig returns reasonable defaults: connection_timeout(120s) and
// idle_timeout(300s) as used by original_source/src/pool.rs's NntpPool.
func DefaultConfig() Config {
	return Config{
		MaxSize:        10,
		ConnectTimeout: 120 * time.Second,
		IdleTimeout:    300 * time.Second,
		Retry:          DefaultRetryConfig(),
	}
}
