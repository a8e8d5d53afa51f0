package cache

import (
	"sync"
	"time"

	"github.com/depls-dev/depls"
)

// DefaultVulnQueryTTL is the vulnerability-query cache's default entry
// lifetime.
const DefaultVulnQueryTTL = 6 * time.Hour

// VulnQuerySeen is the vulnerability-query cache: a concurrent set of
// VulnerabilityQueryKey with per-entry insertion times. Presence means
// "already asked about this triple"; no payload is stored here, the
// actual findings live on the corresponding VersionInfo in the version
// cache.
type VulnQuerySeen struct {
	ttl    time.Duration
	mu     sync.Mutex
	seenAt map[depls.VulnerabilityQueryKey]time.Time
}

// NewVulnQuerySeen builds an empty set with the given TTL; a zero ttl is
// replaced with DefaultVulnQueryTTL.
func NewVulnQuerySeen(ttl time.Duration) *VulnQuerySeen {
	if ttl <= 0 {
		ttl = DefaultVulnQueryTTL
	}
	return &VulnQuerySeen{ttl: ttl, seenAt: make(map[depls.VulnerabilityQueryKey]time.Time)}
}

// Contains reports whether key was inserted within the TTL window.
func (s *VulnQuerySeen) Contains(key depls.VulnerabilityQueryKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.seenAt[key]
	if !ok {
		return false
	}
	return time.Since(t) <= s.ttl
}

// Insert marks key as seen as of now.
func (s *VulnQuerySeen) Insert(key depls.VulnerabilityQueryKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seenAt[key] = time.Now()
}

// SweepExpired removes every entry older than the TTL and returns the
// count removed.
func (s *VulnQuerySeen) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	now := time.Now()
	for k, t := range s.seenAt {
		if now.Sub(t) > s.ttl {
			delete(s.seenAt, k)
			removed++
		}
	}
	return removed
}
