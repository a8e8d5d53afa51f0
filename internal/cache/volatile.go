// Package cache implements the two-tier version cache: an in-memory
// Volatile tier, a disk-backed Persistent tier, and the Hybrid composition
// over both. It also provides the vulnerability-query
// "seen" set, built on the same sharded-map machinery.
package cache

import (
	"sync"
	"time"

	"github.com/depls-dev/depls"
)

// shardCount is the number of independent, mutex-guarded buckets a
// Volatile cache is split across; chosen large enough that per-document
// fan-out (five concurrent fetches) rarely contends on the same shard.
const shardCount = 32

// DefaultTTL is the volatile cache's default entry lifetime.
const DefaultTTL = time.Hour

type shard struct {
	mu      sync.Mutex
	entries map[string]depls.CacheEntry
}

// Volatile is a concurrent, sharded, in-memory map from cache key to
// CacheEntry with per-entry TTL. Every operation touches exactly one
// shard's lock and never suspends while holding it.
type Volatile struct {
	ttl    time.Duration
	shards [shardCount]*shard
}

// NewVolatile builds an empty Volatile cache with the given default TTL.
// A zero ttl is replaced with DefaultTTL.
func NewVolatile(ttl time.Duration) *Volatile {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	v := &Volatile{ttl: ttl}
	for i := range v.shards {
		v.shards[i] = &shard{entries: make(map[string]depls.CacheEntry)}
	}
	return v
}

func (v *Volatile) shardFor(key string) *shard {
	return v.shards[fnv32(key)%shardCount]
}

// Get returns the cached VersionInfo for key, or ok=false if absent or
// expired. An expired entry is reported absent but may be left in place
// for the sweeper to reclaim (lazy eviction).
func (v *Volatile) Get(key string) (depls.VersionInfo, bool) {
	s := v.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.Expired(time.Now()) {
		return depls.VersionInfo{}, false
	}
	return e.Info, true
}

// Insert stores info under key with the cache's default TTL, stamped with
// the current time.
func (v *Volatile) Insert(key string, info depls.VersionInfo) {
	v.InsertWithTTL(key, info, v.ttl)
}

// InsertWithTTL stores info under key with an explicit TTL, for tiers
// (such as the vulnerability-query cache) that use a different default.
func (v *Volatile) InsertWithTTL(key string, info depls.VersionInfo, ttl time.Duration) {
	s := v.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = depls.CacheEntry{Info: info, InsertedAt: time.Now(), TTL: ttl}
}

// Remove deletes key from the cache, if present.
func (v *Volatile) Remove(key string) {
	s := v.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear empties every shard.
func (v *Volatile) Clear() {
	for _, s := range v.shards {
		s.mu.Lock()
		s.entries = make(map[string]depls.CacheEntry)
		s.mu.Unlock()
	}
}

// Contains reports whether key has a live, unexpired entry.
func (v *Volatile) Contains(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Stats is a point-in-time snapshot of cache occupancy.
type Stats struct {
	Entries int
	Expired int
}

// Stats walks every shard under its own lock (never more than one shard
// lock held at a time) and reports aggregate counts.
func (v *Volatile) Stats() Stats {
	var st Stats
	now := time.Now()
	for _, s := range v.shards {
		s.mu.Lock()
		for _, e := range s.entries {
			st.Entries++
			if e.Expired(now) {
				st.Expired++
			}
		}
		s.mu.Unlock()
	}
	return st
}

// SweepExpired removes every expired entry and returns the count removed.
// Each shard is locked, swept, and unlocked in turn.
func (v *Volatile) SweepExpired() int {
	now := time.Now()
	removed := 0
	for _, s := range v.shards {
		s.mu.Lock()
		for k, e := range s.entries {
			if e.Expired(now) {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// fnv32 is a tiny, allocation-free string hash used only to pick a shard;
// it need not be cryptographically sound, only well distributed.
func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
