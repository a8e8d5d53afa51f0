// Package pipeline implements the document-processing pipeline:
// parse, register document state, fan out bounded registry fetches,
// publish diagnostics, request a hint refresh, and detach a background
// vulnerability-enrichment pass.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/quay/zlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/docs"
	"github.com/depls-dev/depls/internal/metrics"
	"github.com/depls-dev/depls/internal/parser"
	"github.com/depls-dev/depls/internal/registry"
	"github.com/depls-dev/depls/internal/vuln"
)

var tracer trace.Tracer = otel.Tracer("github.com/depls-dev/depls/internal/pipeline")

// fanOutLimit bounds in-flight registry fetches per document run,
// protecting both the upstream and local file descriptors.
const fanOutLimit = 5

// Notifier is the small set of client callbacks the pipeline needs. It is
// the pipeline's only view of the LSP runtime, kept deliberately narrow
// so tests can supply a stub without standing up a real server.
type Notifier interface {
	PublishDiagnostics(uri string, diags []depls.Diagnostic)
	RefreshInlayHints()
	RefreshDiagnostics()
}

// DiagnosticsBuilder builds diagnostics for a document; kept as an injected
// function rather than a hard dependency on internal/lsp so pipeline has
// no import cycle with the provider packages (lsp depends on pipeline's
// outputs, not the reverse).
type DiagnosticsBuilder func(ecosystem depls.Ecosystem, deps []depls.Dependency, cache *cache.Hybrid) []depls.Diagnostic

// Options configures one Pipeline instance.
type Options struct {
	Parsers      parser.Registry
	Registries   registry.Set
	Cache        *cache.Hybrid
	VulnSeen     *cache.VulnQuerySeen
	VulnService  vuln.Service
	Docs         *docs.Registry
	Notifier     Notifier
	Diagnostics  DiagnosticsBuilder
	Metrics      *metrics.Collectors // optional
	DiagsEnabled bool
	VulnEnabled  bool
}

// Pipeline owns no mutable state beyond what Options hands it; every run
// captures a small bundle of owned handles rather than closing over a
// long-lived orchestrator struct.
type Pipeline struct {
	opts Options
}

// New returns a Pipeline ready to Run documents through.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes the pipeline for one (uri, text) pair. It returns once
// the foreground work is done; the vulnerability pass is detached as a
// background goroutine.
func (p *Pipeline) Run(ctx context.Context, uri, text string) {
	eco, deps, ok := p.runForeground(ctx, uri, text)
	if !ok || !p.vulnEligible(deps) {
		return
	}
	// Detached: the foreground pipeline returns here. Captures only
	// owned handles, never the Pipeline itself.
	go runVulnerabilityPass(context.WithoutCancel(ctx), p.vulnDeps(), eco, deps)
}

// RunSync is Run with the vulnerability pass executed inline instead of
// detached. The CLI scan path uses it: a scan has no editor to refresh
// and needs a fully enriched cache before its report is built.
func (p *Pipeline) RunSync(ctx context.Context, uri, text string) {
	eco, deps, ok := p.runForeground(ctx, uri, text)
	if !ok || !p.vulnEligible(deps) {
		return
	}
	runVulnerabilityPass(ctx, p.vulnDeps(), eco, deps)
}

func (p *Pipeline) runForeground(ctx context.Context, uri, text string) (depls.Ecosystem, []depls.Dependency, bool) {
	runID := uuid.New()
	ctx = zlog.ContextWithValues(ctx, "component", "pipeline", "run", runID.String(), "uri", uri)
	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()

	eco, ok := classify.Ecosystem(uri)
	if !ok {
		return eco, nil, false
	}

	prsr, ok := p.opts.Parsers.For(eco)
	if !ok {
		zlog.Warn(ctx).Str("ecosystem", eco.String()).Msg("no parser registered for ecosystem")
		return eco, nil, false
	}
	deps := prsr.Parse(text)

	// Document state is installed before any network work so downstream
	// providers can answer immediately from cache.
	p.opts.Docs.Set(uri, docs.DocumentState{Ecosystem: eco, Dependencies: deps})

	p.fetchAll(ctx, eco, deps)

	if p.opts.DiagsEnabled && p.opts.Diagnostics != nil && p.opts.Notifier != nil {
		diags := p.opts.Diagnostics(eco, deps, p.opts.Cache)
		p.opts.Notifier.PublishDiagnostics(uri, diags)
	}
	if p.opts.Notifier != nil {
		p.opts.Notifier.RefreshInlayHints()
	}
	return eco, deps, true
}

func (p *Pipeline) vulnEligible(deps []depls.Dependency) bool {
	return p.opts.VulnEnabled && len(deps) > 0 && p.opts.VulnService != nil
}

func (p *Pipeline) vulnDeps() vulnPassDeps {
	return vulnPassDeps{
		cache:    p.opts.Cache,
		seen:     p.opts.VulnSeen,
		service:  p.opts.VulnService,
		notifier: p.opts.Notifier,
		metrics:  p.opts.Metrics,
	}
}

// fetchAll plans and awaits the registry fan-out: for each unique
// dependency whose cache key is absent, fetch via the registry and
// insert on success, bounded to fanOutLimit in-flight fetches. Errors are
// swallowed; a miss this run is retried on the document's next run.
func (p *Pipeline) fetchAll(ctx context.Context, eco depls.Ecosystem, deps []depls.Dependency) {
	adapter, ok := p.opts.Registries.For(eco)
	if !ok {
		return
	}
	prefix := classify.CachePrefix(eco)

	planned := map[string]struct{}{}
	sem := semaphore.NewWeighted(fanOutLimit)
	for _, dep := range deps {
		key := depls.CacheKey(prefix, dep.Name)
		if _, dup := planned[key]; dup {
			continue
		}
		if _, found := p.opts.Cache.Get(ctx, key); found {
			continue
		}
		planned[key] = struct{}{}

		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; stop planning further fetches but let
			// in-flight ones finish below.
			break
		}
		go func(name, key string) {
			defer sem.Release(1)
			if p.opts.Metrics != nil {
				p.opts.Metrics.InFlightFetch.Inc()
				defer p.opts.Metrics.InFlightFetch.Dec()
			}
			info, err := adapter.GetVersionInfo(ctx, name)
			if err != nil {
				zlog.Debug(ctx).Err(err).Str("package", name).Msg("registry fetch miss")
				return
			}
			p.opts.Cache.Insert(ctx, key, info)
		}(dep.Name, key)
	}
	// Unconditionally wait for all in-flight fetches by draining the
	// full semaphore.
	_ = sem.Acquire(context.Background(), fanOutLimit)
}
