package pipeline

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/quay/zlog"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/metrics"
	"github.com/depls-dev/depls/internal/vuln"
)

// vulnPassDeps bundles the owned handles the background vulnerability
// pass needs. A fresh bundle is captured per pipeline run rather than a
// closure over *Pipeline.
type vulnPassDeps struct {
	cache    *cache.Hybrid
	seen     *cache.VulnQuerySeen
	service  vuln.Service
	notifier Notifier
	metrics  *metrics.Collectors
}

// runVulnerabilityPass enriches cached VersionInfo entries with
// vulnerability and deprecation data from the remote service.
// Vulnerability results are advisory: they never block hint or
// diagnostic delivery, which already happened in the foreground pipeline
// before this pass starts (as a detached goroutine from Run, inline from
// RunSync).
func runVulnerabilityPass(ctx context.Context, d vulnPassDeps, eco depls.Ecosystem, deps []depls.Dependency) {
	ctx = zlog.ContextWithValues(ctx, "component", "pipeline.vulnpass")
	ctx, span := tracer.Start(ctx, "runVulnerabilityPass")
	defer span.End()
	if d.metrics != nil {
		timer := prometheus.NewTimer(d.metrics.VulnPassSecs)
		defer timer.ObserveDuration()
	}

	prefix := classify.CachePrefix(eco)
	vulnEco := classify.VulnEcosystemName(eco)

	type plannedQuery struct {
		key vuln.QueryKey
		dep depls.Dependency
	}

	var planned []plannedQuery
	seenThisRun := map[depls.VulnerabilityQueryKey]struct{}{}
	for _, dep := range deps {
		qk := depls.VulnerabilityQueryKey{Ecosystem: eco, Name: dep.Name, Version: dep.Version}
		if _, dup := seenThisRun[qk]; dup {
			continue
		}
		seenThisRun[qk] = struct{}{}
		if d.seen.Contains(qk) {
			continue
		}
		planned = append(planned, plannedQuery{
			key: vuln.QueryKey{VulnerabilityQueryKey: qk, VulnEcosystem: vulnEco},
			dep: dep,
		})
	}
	if len(planned) == 0 {
		return
	}

	queries := make([]vuln.QueryKey, len(planned))
	for i, pl := range planned {
		queries[i] = pl.key
	}
	results, err := d.service.QueryBatch(ctx, queries)
	if err != nil {
		zlog.Warn(ctx).Err(err).Msg("vulnerability service query failed")
		return
	}
	if len(results) != len(planned) {
		zlog.Warn(ctx).Int("want", len(planned)).Int("got", len(results)).Msg("vulnerability service returned mismatched result count")
		return
	}

	for i, pl := range planned {
		d.seen.Insert(pl.key.VulnerabilityQueryKey)

		cacheKey := depls.CacheKey(prefix, pl.dep.Name)
		if _, found := d.cache.Get(ctx, cacheKey); !found {
			zlog.Debug(ctx).Str("package", pl.dep.Name).Msg("no version cache entry to enrich; registry pass must have missed this package")
			continue
		}
		result := results[i]
		d.cache.Update(ctx, cacheKey, func(info depls.VersionInfo, found bool) depls.VersionInfo {
			info.Vulnerabilities = result.Vulnerabilities
			info.Deprecated = result.Deprecated
			return info
		})
	}

	if d.notifier != nil {
		d.notifier.RefreshInlayHints()
		d.notifier.RefreshDiagnostics()
	}
}
