package pool

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/javi11/nntppool/v4/errs"
)

// Conn is the minimal surface the pool needs from a connected,
// authenticated connection in order to manage its lifecycle. *nntp.Client
// satisfies this directly; tests use a lightweight fake so pool logic can
// be exercised without a live server.
type Conn interface {
	IsBroken() bool
	Close(ctx context.Context) error
}

// Factory creates, authenticates and (best-effort) compresses one fresh
// connection. Implementations typically chain nntp.Dial, Client.Authenticate
// and Client.TryEnableCompression, per §4.5's "connect → authenticate →
// try-enable-compression".
type Factory[C Conn] func(ctx context.Context) (C, error)

type idleConn[C Conn] struct {
	client   C
	parkedAt time.Time
}

// Pool bounds concurrent connections to one server configuration (§3, §4.5).
// Population and the idle list are mutated under a single mutex, matching
// spec.md §5's "contention is expected to be low" design.
type Pool[C Conn] struct {
	cfg     Config
	factory Factory[C]
	log     *slog.Logger

	mu         sync.Mutex
	idle       []idleConn[C]
	population int
}

// New constructs a Pool. factory is invoked lazily, never eagerly, to
// honor the "created lazily" rule in §4.5.
func New[C Conn](cfg Config, factory Factory[C], logger *slog.Logger) *Pool[C] {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	return &Pool[C]{
		cfg:     cfg,
		factory: factory,
		log:     logger.With("component", "pool"),
	}
}

// Acquire returns a usable connection, applying the retry policy in
// cfg.Retry around the underlying acquisition attempt (§4.5's retry
// algorithm, grounded bit-for-bit in original_source/src/pool.rs's
// `get()`: sleep = base + (jitter ? uniform(0, base/2) : 0), then
// base = min(base*multiplier, max_backoff) for the next attempt).
func (p *Pool[C]) Acquire(ctx context.Context) (C, error) {
	var client C

	attempts := p.cfg.Retry.MaxRetries + 1
	opts := []retry.Option{
		retry.Attempts(uint(attempts)),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, cfg *retry.Config) time.Duration {
			return backoffDelay(p.cfg.Retry, n)
		}),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			p.log.DebugContext(ctx, "pool acquire retrying", "attempt", n+1, "error", err)
		}),
	}

	err := retry.Do(func() error {
		c, aerr := p.tryAcquireOnce(ctx)
		if aerr != nil {
			return aerr
		}
		client = c
		return nil
	}, opts...)

	if err != nil {
		var zero C
		return zero, errs.Wrap(errs.KindOther, "failed to get connection from pool after retries", err)
	}
	return client, nil
}

// AcquireNoRetry attempts a single acquisition with no retry, for callers
// that implement their own failover (e.g. servergroup) and would
// otherwise double-retry.
func (p *Pool[C]) AcquireNoRetry(ctx context.Context) (C, error) {
	return p.tryAcquireOnce(ctx)
}

func (p *Pool[C]) tryAcquireOnce(ctx context.Context) (C, error) {
	p.mu.Lock()
	for len(p.idle) > 0 {
		ic := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if ic.client.IsBroken() {
			p.population--
			_ = ic.client.Close(ctx)
			continue
		}
		if p.cfg.IdleTimeout > 0 && time.Since(ic.parkedAt) > p.cfg.IdleTimeout {
			p.population--
			_ = ic.client.Close(ctx)
			continue
		}
		p.mu.Unlock()
		return ic.client, nil
	}

	if p.population < p.cfg.MaxSize {
		p.population++
		p.mu.Unlock()

		connectCtx, cancel := context.WithTimeout(ctx, connectTimeoutOrDefault(p.cfg))
		defer cancel()
		client, err := p.factory(connectCtx)
		if err != nil {
			p.mu.Lock()
			p.population--
			p.mu.Unlock()
			var zero C
			return zero, err
		}
		return client, nil
	}
	p.mu.Unlock()

	var zero C
	return zero, errs.New(errs.KindOther, "pool exhausted: all connections in use")
}

func connectTimeoutOrDefault(cfg Config) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return DefaultConfig().ConnectTimeout
}

// Release returns client to the pool if it is not broken; broken
// connections are closed and their population slot is freed (§4.5).
func (p *Pool[C]) Release(ctx context.Context, client C) {
	if client.IsBroken() {
		p.mu.Lock()
		p.population--
		p.mu.Unlock()
		_ = client.Close(ctx)
		return
	}

	p.mu.Lock()
	p.idle = append(p.idle, idleConn[C]{client: client, parkedAt: time.Now()})
	p.mu.Unlock()
}

// Size returns the current live population, for the testable property in
// §8 ("after N acquire/release cycles the pool holds at most max_size").
func (p *Pool[C]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.population
}

// IdleConnections returns the count of parked, reusable connections.
func (p *Pool[C]) IdleConnections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// backoffDelay implements the exact algorithm from
// original_source/src/pool.rs: sleep_ms = jitter ? backoff_ms +
// rand(0..=backoff_ms/2) : backoff_ms; the caller's next backoff_ms is
// min(backoff_ms * multiplier, max_backoff_ms). retry-go calls DelayType
// once per attempt with the 0-based attempt index n, so we derive the
// pre-attempt backoff by applying the multiplier n times to the initial
// value and clamping to max each step, matching the original's iterative
// state machine without needing to thread state through retry-go.
func backoffDelay(cfg RetryConfig, n uint) time.Duration {
	base := cfg.InitialBackoff
	for i := uint(0); i < n; i++ {
		base = time.Duration(float64(base) * cfg.BackoffMultiplier)
		if cfg.MaxBackoff > 0 && base > cfg.MaxBackoff {
			base = cfg.MaxBackoff
		}
	}
	if !cfg.Jitter {
		return base
	}
	if base <= 0 {
		return base
	}
	half := base / 2
	return base + time.Duration(rand.Int63n(int64(half)+1))
}
