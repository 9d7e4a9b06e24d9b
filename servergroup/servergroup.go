package servergroup

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/javi11/nntppool/v4/errs"
	"github.com/javi11/nntppool/v4/nntp"
	"github.com/javi11/nntppool/v4/pool"
)

// serverEntry pairs one server's pool with its priority and live stats,
// mirroring servers.rs's ServerEntry.
type serverEntry struct {
	id       string
	priority uint32
	pool     *pool.Pool[*nntp.Client]
	stats    *atomicServerStats
}

// ServerGroup coordinates multiple per-server pools, providing automatic
// failover on connection errors and configurable load balancing (§4.6).
//
// Failover behavior:
//   - Connection errors: automatically try the next server in order.
//   - 430 (not found): never triggers failover — the article simply
//     doesn't exist on that server.
//   - Other 4xx/5xx: recorded by the caller, the connection stays valid.
type ServerGroup struct {
	mu              sync.Mutex
	servers         []*serverEntry
	strategy        FailoverStrategy
	roundRobinIndex int

	failoverCount atomic.Uint64

	degradedThreshold      float64
	maxConsecutiveFailures uint32

	log *slog.Logger
}

// Conn is a connection checked out from a ServerGroup, tagged with the
// server it came from so it can be released to the right per-server pool.
type Conn struct {
	Client   *nntp.Client
	ServerID string
}

// ServerSpec describes one member server and its selection priority (higher
// is preferred), matching servers.rs's (ServerConfig, priority) pairing.
type ServerSpec struct {
	Config   nntp.ServerConfig
	Priority uint32
}

// New builds a ServerGroup, creating one bounded pool per server (§4.5,
// §4.6). Each pool's factory dials, authenticates and opportunistically
// compresses, the sequence servers.rs's NntpPool::new drives per connection.
func New(ctx context.Context, specs []ServerSpec, strategy FailoverStrategy, maxPoolSize int, logger *slog.Logger) (*ServerGroup, error) {
	if len(specs) == 0 {
		return nil, errs.New(errs.KindOther, "at least one server configuration required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Deep-copy the caller-supplied specs with jinzhu/copier, mirroring the
	// teacher's config.Manager.DeepCopy: mutating the caller's slice after
	// New returns must not reach the live per-server pools below.
	var sorted []ServerSpec
	if err := copier.CopyWithOption(&sorted, &specs, copier.Option{DeepCopy: true}); err != nil {
		return nil, errs.Wrap(errs.KindOther, "failed to snapshot server specs", err)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	g := &ServerGroup{
		strategy:               strategy,
		degradedThreshold:      0.95,
		maxConsecutiveFailures: 5,
		log:                    logger.With("component", "servergroup"),
	}

	for _, spec := range sorted {
		cfg := spec.Config
		serverID := serverIDFor(cfg)
		factory := func(ctx context.Context) (*nntp.Client, error) {
			client, err := nntp.Dial(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			if cfg.Username != "" {
				if err := client.Authenticate(ctx); err != nil {
					_ = client.Close(ctx)
					return nil, err
				}
			}
			if _, err := client.TryEnableCompression(ctx); err != nil {
				g.log.DebugContext(ctx, "compression negotiation failed, continuing uncompressed", "server", serverID, "error", err)
			}
			return client, nil
		}

		p := pool.New[*nntp.Client](pool.Config{MaxSize: maxPoolSize, Retry: pool.NoRetryConfig()}, factory, logger)
		g.servers = append(g.servers, &serverEntry{
			id:       serverID,
			priority: spec.Priority,
			pool:     p,
			stats:    newAtomicServerStats(serverID),
		})
	}

	return g, nil
}

func serverIDFor(cfg nntp.ServerConfig) string {
	return cfg.Host + ":" + strconv.Itoa(cfg.Port)
}

// GetConnection selects a server order per the configured strategy and
// tries each in turn until one yields a connection (§4.6). The failover
// counter is incremented once per GetConnection call that needed more than
// one attempt, not once per failed attempt — see DESIGN.md's decision on
// this point.
func (g *ServerGroup) GetConnection(ctx context.Context) (Conn, error) {
	g.mu.Lock()
	order := g.serverOrder()
	g.mu.Unlock()

	// traceID correlates every attempt in one failover sequence across log
	// lines, the request-correlation idiom the teacher applies with
	// google/uuid elsewhere in its request-handling paths.
	traceID := uuid.NewString()

	var lastErr error
	attempts := 0
	for _, idx := range order {
		attempts++
		server := g.servers[idx]
		client, err := server.pool.AcquireNoRetry(ctx)
		if err != nil {
			server.stats.recordFailure()
			g.log.DebugContext(ctx, "acquire failed, trying next server",
				"trace_id", traceID, "server", server.id, "attempt", attempts, "error", err)
			lastErr = err
			continue
		}
		server.stats.recordSuccess(0)
		if attempts > 1 {
			g.failoverCount.Add(1)
			g.log.DebugContext(ctx, "failover succeeded",
				"trace_id", traceID, "server", server.id, "attempts", attempts)
		}
		return Conn{Client: client, ServerID: server.id}, nil
	}

	if lastErr == nil {
		lastErr = errs.New(errs.KindOther, "no servers available")
	}
	return Conn{}, lastErr
}

// GetConnectionFrom acquires a connection from one named server, bypassing
// strategy-driven selection. Failures are recorded but never trigger
// failover to another server.
func (g *ServerGroup) GetConnectionFrom(ctx context.Context, serverID string) (Conn, error) {
	server := g.findServer(serverID)
	if server == nil {
		return Conn{}, errs.New(errs.KindOther, "server not found: "+serverID)
	}

	client, err := server.pool.AcquireNoRetry(ctx)
	if err != nil {
		server.stats.recordFailure()
		return Conn{}, err
	}
	server.stats.recordSuccess(0)
	return Conn{Client: client, ServerID: server.id}, nil
}

// Release returns a connection to its originating server's pool.
func (g *ServerGroup) Release(ctx context.Context, conn Conn) {
	server := g.findServer(conn.ServerID)
	if server == nil {
		_ = conn.Client.Close(ctx)
		return
	}
	server.pool.Release(ctx, conn.Client)
}

// RecordNotFound records a 430 response against serverID. This updates
// statistics but never triggers failover — the article doesn't exist on
// that server, which says nothing about the server's health.
func (g *ServerGroup) RecordNotFound(serverID string) {
	if server := g.findServer(serverID); server != nil {
		server.stats.recordNotFound()
	}
}

// RecordSuccess records a successful transfer of n bytes against serverID,
// for callers that complete work on a connection outside of GetConnection's
// own success accounting (e.g. after a multi-request pipeline).
func (g *ServerGroup) RecordSuccess(serverID string, bytes uint64) {
	if server := g.findServer(serverID); server != nil {
		server.stats.recordSuccess(bytes)
	}
}

// RecordFailure records a connection-level failure against serverID.
func (g *ServerGroup) RecordFailure(serverID string) {
	if server := g.findServer(serverID); server != nil {
		server.stats.recordFailure()
	}
}

func (g *ServerGroup) findServer(serverID string) *serverEntry {
	for _, s := range g.servers {
		if s.id == serverID {
			return s
		}
	}
	return nil
}

// Stats returns aggregate statistics across every server in the group.
func (g *ServerGroup) Stats() GroupStats {
	perServer := make(map[string]ServerStats, len(g.servers))
	var totalRequests, totalNotFound uint64
	for _, s := range g.servers {
		snap := s.stats.snapshot()
		totalRequests += snap.TotalRequests
		totalNotFound += snap.NotFoundRequests
		perServer[s.id] = snap
	}
	return GroupStats{
		TotalRequests:  totalRequests,
		TotalNotFound:  totalNotFound,
		FailoverCount:  g.failoverCount.Load(),
		PerServerStats: perServer,
	}
}

// ServerStatsFor returns the statistics for one server, if present.
func (g *ServerGroup) ServerStatsFor(serverID string) (ServerStats, bool) {
	server := g.findServer(serverID)
	if server == nil {
		return ServerStats{}, false
	}
	return server.stats.snapshot(), true
}

// ServerIDs returns the member server IDs in priority order.
func (g *ServerGroup) ServerIDs() []string {
	ids := make([]string, len(g.servers))
	for i, s := range g.servers {
		ids[i] = s.id
	}
	return ids
}

// ServerCount returns the number of servers in the group.
func (g *ServerGroup) ServerCount() int {
	return len(g.servers)
}
