// Package nntppool is the top-level facade over the layered client: it
// wires L1-L5 (frame, transport, nntp, pool/servergroup, yenc/par2/nzb) into
// the single entry point a caller imports, the way altmount's
// internal/pool/provider_factory.go consumed the old github.com/javi11/
// nntppool/v3 — here, this package *is* that library.
package nntppool

import (
	"context"
	"log/slog"

	"github.com/javi11/nntppool/v4/errs"
	"github.com/javi11/nntppool/v4/nntp"
	"github.com/javi11/nntppool/v4/pool"
	"github.com/javi11/nntppool/v4/servergroup"
	concpool "github.com/sourcegraph/conc/pool"
)

// Re-exported so callers need only import this one package for the common
// path, mirroring provider_factory.go's re-export of nntppool.ProviderConfig
// and nntppool.Auth at the call site.
type (
	ServerConfig     = nntp.ServerConfig
	Article          = nntp.Article
	GroupInfo        = nntp.GroupInfo
	ArticleInfo      = nntp.ArticleInfo
	FailoverStrategy = servergroup.FailoverStrategy
	ServerStats      = servergroup.ServerStats
)

const (
	PrimaryWithFallback = servergroup.PrimaryWithFallback
	RoundRobin          = servergroup.RoundRobin
	RoundRobinHealthy   = servergroup.RoundRobinHealthy
)

// ServerSpec pairs one server's connection details with a pool size and
// selection priority, flattening servergroup.ServerSpec and pool.Config
// into the single struct a caller fills in once. New gives every server's
// pool the same size: the largest MaxPoolSize among all servers (or
// pool.DefaultConfig's MaxSize when none is set); sizes are not applied
// per server.
type ServerSpec struct {
	Config      ServerConfig
	Priority    uint32
	MaxPoolSize int
}

// Config configures a Client: one or more servers, the failover strategy
// across them, and a logger. RoundRobinHealthy uses servergroup's fixed
// degraded-health thresholds (availability 0.95, 5 consecutive failures);
// Config has no fields to change them.
type Config struct {
	Servers  []ServerSpec
	Strategy FailoverStrategy
	Logger   *slog.Logger
}

// Client is the multi-server, connection-pooled NNTP client a caller holds
// for the lifetime of a download session. It is the composition root for
// L4: one servergroup.ServerGroup fronting one pool.Pool per server.
type Client struct {
	group *servergroup.ServerGroup
}

// New dials nothing eagerly: each per-server pool.Pool creates connections
// lazily on first Acquire, per §4.5. Use Dial for callers that want to
// verify connectivity to at least one server up front.
func New(ctx context.Context, cfg Config) (*Client, error) {
	specs := make([]servergroup.ServerSpec, len(cfg.Servers))
	maxPoolSize := 0
	for i, s := range cfg.Servers {
		specs[i] = servergroup.ServerSpec{Config: s.Config, Priority: s.Priority}
		if s.MaxPoolSize > maxPoolSize {
			maxPoolSize = s.MaxPoolSize
		}
	}
	if maxPoolSize <= 0 {
		maxPoolSize = pool.DefaultConfig().MaxSize
	}

	group, err := servergroup.New(ctx, specs, cfg.Strategy, maxPoolSize, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Client{group: group}, nil
}

// Dial is New followed by one throwaway Acquire/Release cycle, so the
// caller learns immediately whether any configured server is reachable
// rather than on the first real request.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	c, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	conn, err := c.group.GetConnection(ctx)
	if err != nil {
		return nil, err
	}
	c.group.Release(ctx, conn)
	return c, nil
}

// withConn wraps the servergroup.Conn returned by GetConnection so call sites
// below read as one fetch-and-release step instead of repeating the
// acquire/defer-release boilerplate for every operation.
func (c *Client) withConn(ctx context.Context, fn func(*nntp.Client) error) error {
	conn, err := c.group.GetConnection(ctx)
	if err != nil {
		return err
	}
	err = fn(conn.Client)
	if err != nil && errs.IsNotFound(err) {
		c.group.RecordNotFound(conn.ServerID)
	}
	c.group.Release(ctx, conn)
	return err
}

// Article fetches one article by number or message-id from any server in
// the group, recording a 430 as RecordNotFound rather than a failure
// (§4.6's "430 does not trigger failover").
func (c *Client) Article(ctx context.Context, id string) (Article, error) {
	var art Article
	err := c.withConn(ctx, func(client *nntp.Client) error {
		a, ferr := client.Article(ctx, id)
		art = a
		return ferr
	})
	return art, err
}

// SelectGroup selects name on any server in the group and returns its
// article-count/low/high watermarks.
func (c *Client) SelectGroup(ctx context.Context, name string) (GroupInfo, error) {
	var info GroupInfo
	err := c.withConn(ctx, func(client *nntp.Client) error {
		i, ferr := client.SelectGroup(ctx, name)
		info = i
		return ferr
	})
	return info, err
}

// FetchArticles fetches ids concurrently across the group's pools, bounded
// by maxWorkers simultaneous checkouts, the same sourcegraph/conc/pool
// shape pool.FetchArticles uses for a single-server pool — generalized
// here so each worker's checkout goes through the group's failover
// selection instead of one fixed pool. 430 responses are recorded against
// the serving server but do not fail the batch.
func (c *Client) FetchArticles(ctx context.Context, ids []string, maxWorkers int) []pool.BatchResult {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	results := make([]pool.BatchResult, len(ids))
	wp := concpool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)

	for i, id := range ids {
		idx, msgID := i, id
		wp.Go(func(goCtx context.Context) error {
			conn, err := c.group.GetConnection(goCtx)
			if err != nil {
				results[idx] = pool.BatchResult{ID: msgID, Err: err}
				return nil
			}
			art, ferr := conn.Client.Article(goCtx, msgID)
			if ferr != nil {
				if errs.IsNotFound(ferr) {
					c.group.RecordNotFound(conn.ServerID)
				}
			} else {
				c.group.RecordSuccess(conn.ServerID, uint64(len(art.Raw)))
			}
			results[idx] = pool.BatchResult{ID: msgID, Article: art, Err: ferr}
			c.group.Release(goCtx, conn)
			return nil
		})
	}

	_ = wp.Wait()
	return results
}

// Stats returns the group's aggregate per-server statistics (§3's
// ServerStats, §4.6).
func (c *Client) Stats() servergroup.GroupStats {
	return c.group.Stats()
}
