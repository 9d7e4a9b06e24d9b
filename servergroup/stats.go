// Package servergroup implements L4.b: failover and load balancing across
// multiple per-server pools, grounded in original_source/src/servers.rs's
// ServerGroup and adapted onto the generic pool.Pool[*nntp.Client] built in
// the sibling pool package.
package servergroup

import (
	"sync"
	"sync/atomic"
	"time"
)

// ServerStats is an immutable snapshot of one server's health, mirroring
// original_source/src/servers.rs's ServerStats.
type ServerStats struct {
	ServerID              string
	TotalRequests         uint64
	SuccessfulRequests    uint64
	FailedRequests        uint64
	NotFoundRequests      uint64
	TotalBytesDownloaded  uint64
	LastSuccessTime       time.Time
	LastFailureTime       time.Time
	ConsecutiveFailures   uint32
}

// AvailabilityScore returns the ratio of successful requests to requests
// other than 430 (not found) responses, 1.0 if there are none yet. 430s
// are left out so that absent articles do not lower a server's health.
func (s ServerStats) AvailabilityScore() float64 {
	if s.NotFoundRequests >= s.TotalRequests {
		return 1.0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests-s.NotFoundRequests)
}

// IsDegraded reports whether availability is below threshold or consecutive
// failures has reached maxConsecutiveFailures.
func (s ServerStats) IsDegraded(threshold float64, maxConsecutiveFailures uint32) bool {
	return s.AvailabilityScore() < threshold || s.ConsecutiveFailures >= maxConsecutiveFailures
}

// atomicServerStats is the thread-safe, mutable counterpart to ServerStats,
// ported field-for-field from AtomicServerStats in servers.rs.
type atomicServerStats struct {
	serverID string

	totalRequests        atomic.Uint64
	successfulRequests   atomic.Uint64
	failedRequests       atomic.Uint64
	notFoundRequests     atomic.Uint64
	totalBytesDownloaded atomic.Uint64
	consecutiveFailures  atomic.Uint32

	mu              sync.Mutex
	lastSuccessTime time.Time
	lastFailureTime time.Time
}

func newAtomicServerStats(serverID string) *atomicServerStats {
	return &atomicServerStats{serverID: serverID}
}

func (s *atomicServerStats) recordSuccess(bytes uint64) {
	s.totalRequests.Add(1)
	s.successfulRequests.Add(1)
	s.totalBytesDownloaded.Add(bytes)
	s.consecutiveFailures.Store(0)
	s.mu.Lock()
	s.lastSuccessTime = time.Now()
	s.mu.Unlock()
}

func (s *atomicServerStats) recordFailure() {
	s.totalRequests.Add(1)
	s.failedRequests.Add(1)
	s.consecutiveFailures.Add(1)
	s.mu.Lock()
	s.lastFailureTime = time.Now()
	s.mu.Unlock()
}

// recordNotFound counts a 430 response. Not counted as a failure: the
// article simply doesn't exist (§servers.rs's record_not_found).
func (s *atomicServerStats) recordNotFound() {
	s.totalRequests.Add(1)
	s.notFoundRequests.Add(1)
}

func (s *atomicServerStats) snapshot() ServerStats {
	s.mu.Lock()
	lastSuccess := s.lastSuccessTime
	lastFailure := s.lastFailureTime
	s.mu.Unlock()

	return ServerStats{
		ServerID:             s.serverID,
		TotalRequests:        s.totalRequests.Load(),
		SuccessfulRequests:   s.successfulRequests.Load(),
		FailedRequests:       s.failedRequests.Load(),
		NotFoundRequests:     s.notFoundRequests.Load(),
		TotalBytesDownloaded: s.totalBytesDownloaded.Load(),
		ConsecutiveFailures:  s.consecutiveFailures.Load(),
		LastSuccessTime:      lastSuccess,
		LastFailureTime:      lastFailure,
	}
}

// GroupStats aggregates statistics across every server in a group.
type GroupStats struct {
	TotalRequests  uint64
	TotalNotFound  uint64
	FailoverCount  uint64
	PerServerStats map[string]ServerStats
}
