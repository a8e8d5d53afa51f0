package cache

import (
	"context"
	"time"

	"github.com/quay/zlog"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/metrics"
)

// SweepInterval is how often the Hybrid cache's background sweeper ticks.
// The first tick is skipped — newly opened caches start
// empty, so an immediate sweep has nothing to do.
const SweepInterval = 30 * time.Minute

// Hybrid composes a Volatile cache over a Persistent one: reads hit
// volatile first and fall through to persistent on a miss, writing the
// persistent hit back into volatile before returning; writes and removals
// go to both tiers.
type Hybrid struct {
	Volatile   *Volatile
	Persistent *Persistent // nil means volatile-only, degraded mode

	// Metrics, when non-nil, receives per-tier hit/miss counts. Set
	// before first use; never mutated afterward.
	Metrics *metrics.Collectors

	cancel context.CancelFunc
}

// NewHybrid composes vol over per and starts the background sweeper. per
// may be nil, in which case the cache runs volatile-only.
func NewHybrid(ctx context.Context, vol *Volatile, per *Persistent) *Hybrid {
	sweepCtx, cancel := context.WithCancel(ctx)
	h := &Hybrid{Volatile: vol, Persistent: per, cancel: cancel}
	go h.sweepLoop(sweepCtx)
	return h
}

// Close stops the background sweeper. It does not close the underlying
// Persistent store; callers that opened it are responsible for that.
func (h *Hybrid) Close() {
	h.cancel()
}

// Get returns info, true on a volatile hit; on a volatile miss it falls
// through to the persistent tier (if any) and, on a persistent hit,
// writes the value back into volatile before returning it.
func (h *Hybrid) Get(ctx context.Context, key string) (depls.VersionInfo, bool) {
	if info, ok := h.Volatile.Get(key); ok {
		h.count(true, "volatile")
		return info, true
	}
	h.count(false, "volatile")
	if h.Persistent == nil {
		return depls.VersionInfo{}, false
	}
	info, ok := h.Persistent.Get(ctx, key)
	if !ok {
		h.count(false, "persistent")
		return depls.VersionInfo{}, false
	}
	h.count(true, "persistent")
	h.Volatile.Insert(key, info)
	return info, true
}

func (h *Hybrid) count(hit bool, tier string) {
	if h.Metrics == nil {
		return
	}
	if hit {
		h.Metrics.CacheHits.WithLabelValues(tier).Inc()
	} else {
		h.Metrics.CacheMisses.WithLabelValues(tier).Inc()
	}
}

// Insert writes info under key to both tiers.
func (h *Hybrid) Insert(ctx context.Context, key string, info depls.VersionInfo) {
	h.Volatile.Insert(key, info)
	if h.Persistent != nil {
		h.Persistent.Insert(ctx, key, info)
	}
}

// Remove deletes key from both tiers.
func (h *Hybrid) Remove(ctx context.Context, key string) {
	h.Volatile.Remove(key)
	if h.Persistent != nil {
		h.Persistent.Remove(ctx, key)
	}
}

// Clear empties both tiers.
func (h *Hybrid) Clear(ctx context.Context) {
	h.Volatile.Clear()
	if h.Persistent != nil {
		h.Persistent.Clear(ctx)
	}
}

// Update performs a read-modify-write against the hybrid cache: it reads
// the current entry (a miss is treated as a zero-value VersionInfo, with
// found=false passed to fn so it can decide whether to proceed), applies
// fn, and writes the result back. This is the primitive the vulnerability
// pass uses to merge Vulnerabilities/Deprecated into an
// already-cached entry; races with a concurrent registry refetch are
// last-writer-wins and accepted as harmless.
func (h *Hybrid) Update(ctx context.Context, key string, fn func(info depls.VersionInfo, found bool) depls.VersionInfo) {
	info, found := h.Get(ctx, key)
	h.Insert(ctx, key, fn(info, found))
}

func (h *Hybrid) sweepLoop(ctx context.Context) {
	t := time.NewTicker(SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := h.Volatile.SweepExpired()
			if h.Persistent != nil {
				n += h.Persistent.SweepExpired(ctx)
			}
			if n > 0 {
				zlog.Debug(ctx).Int("reclaimed", n).Msg("cache sweep reclaimed expired entries")
			}
		}
	}
}
