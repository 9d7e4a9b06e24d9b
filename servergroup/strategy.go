package servergroup

// FailoverStrategy selects the order servers are tried in, ported from
// original_source/src/servers.rs's FailoverStrategy enum.
type FailoverStrategy int

const (
	// PrimaryWithFallback always tries servers in priority order.
	PrimaryWithFallback FailoverStrategy = iota
	// RoundRobin rotates the starting point through all servers.
	RoundRobin
	// RoundRobinHealthy rotates through non-degraded servers only, falling
	// back to all servers if none are currently healthy.
	RoundRobinHealthy
)

// serverOrder returns the indices of g.servers in the order they should be
// tried for the current strategy. For RoundRobin and RoundRobinHealthy this
// advances g.roundRobinIndex, so it must be called with g.mu held.
func (g *ServerGroup) serverOrder() []int {
	switch g.strategy {
	case RoundRobin:
		n := len(g.servers)
		start := g.roundRobinIndex % n
		g.roundRobinIndex = (g.roundRobinIndex + 1) % n
		order := make([]int, n)
		for i := range order {
			order[i] = (start + i) % n
		}
		return order

	case RoundRobinHealthy:
		healthy := make([]int, 0, len(g.servers))
		for i, s := range g.servers {
			if !s.stats.snapshot().IsDegraded(g.degradedThreshold, g.maxConsecutiveFailures) {
				healthy = append(healthy, i)
			}
		}
		if len(healthy) == 0 {
			order := make([]int, len(g.servers))
			for i := range order {
				order[i] = i
			}
			return order
		}
		n := len(healthy)
		start := g.roundRobinIndex % n
		g.roundRobinIndex = (g.roundRobinIndex + 1) % n
		order := make([]int, n)
		for i := range order {
			order[i] = healthy[(start+i)%n]
		}
		return order

	default: // PrimaryWithFallback
		order := make([]int, len(g.servers))
		for i := range order {
			order[i] = i
		}
		return order
	}
}
