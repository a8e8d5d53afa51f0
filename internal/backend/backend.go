// Package backend wires every core component into the single long-lived
// orchestrator a running server or CLI invocation owns. It is constructed
// once and driven by internal/lspserver's notification/request handlers,
// or directly by cmd/depls's scan subcommand.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quay/zlog"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/debounce"
	"github.com/depls-dev/depls/internal/docs"
	"github.com/depls-dev/depls/internal/lsp"
	"github.com/depls-dev/depls/internal/lsp/actions"
	"github.com/depls-dev/depls/internal/metrics"
	"github.com/depls-dev/depls/internal/parser"
	"github.com/depls-dev/depls/internal/pipeline"
	"github.com/depls-dev/depls/internal/registry"
	"github.com/depls-dev/depls/internal/report"
	"github.com/depls-dev/depls/internal/vuln"
)

// Backend owns every piece of orchestration state: parser table, registry
// adapters, both cache tiers, document registry, debounce table, and the
// vulnerability service. internal/lspserver drives it from LSP
// notifications and requests; cmd/depls's scan subcommand drives it
// directly, bypassing the debounce table.
type Backend struct {
	Config Config

	Parsers    parser.Registry
	Registries registry.Set
	NPM        *registry.NPMAdapter
	Cache      *cache.Hybrid
	VulnSeen   *cache.VulnQuerySeen
	Docs       *docs.Registry
	Debounce   *debounce.Scheduler
	Vuln       vuln.Service
	Metrics    *metrics.Collectors

	pipeline *pipeline.Pipeline
}

// Option adjusts how New assembles a Backend. Tests use these to swap in
// stub registries or a throwaway cache directory; production callers pass
// none.
type Option func(*buildOpts)

type buildOpts struct {
	registries registry.Set
	npm        *registry.NPMAdapter
	vulnSvc    vuln.Service
	cacheDir   string
}

// WithRegistries replaces the default registry adapter set.
func WithRegistries(s registry.Set, npm *registry.NPMAdapter) Option {
	return func(o *buildOpts) { o.registries, o.npm = s, npm }
}

// WithVulnService replaces the default OSV-backed vulnerability service.
func WithVulnService(s vuln.Service) Option {
	return func(o *buildOpts) { o.vulnSvc = s }
}

// WithCacheDir places the persistent cache under dir instead of the
// OS-canonical user cache directory.
func WithCacheDir(dir string) Option {
	return func(o *buildOpts) { o.cacheDir = dir }
}

// New constructs a Backend. notifier may be nil (the CLI scan path has no
// client to notify); when non-nil it is wired into the pipeline so
// inlay-hint/diagnostic refreshes reach the editor.
func New(ctx context.Context, cfg Config, notifier pipeline.Notifier, opts ...Option) (*Backend, error) {
	var bo buildOpts
	for _, o := range opts {
		o(&bo)
	}
	regs, npm := bo.registries, bo.npm
	if regs == nil {
		regs, npm = registry.NewSet(registry.NewHTTPClient())
	}
	if npm != nil && (cfg.Registries.NPM.URL != "" || len(cfg.Registries.NPM.Scoped) > 0) {
		npm.Reconfigure(cfg.Registries.NPM.URL, toScopedRegistries(cfg.Registries.NPM.Scoped))
	}
	vulnSvc := bo.vulnSvc
	if vulnSvc == nil {
		vulnSvc = vuln.NewOSVAdapter(nil)
	}

	per, err := openPersistentCache(ctx, bo.cacheDir)
	if err != nil {
		zlog.Warn(ctx).Err(err).Msg("persistent cache unavailable, running volatile-only")
		per = nil
	}
	hybrid := cache.NewHybrid(ctx, cache.NewVolatile(cfg.cacheTTL()), per)
	coll := metrics.New()
	hybrid.Metrics = coll

	b := &Backend{
		Config:     cfg,
		Parsers:    parser.NewRegistry(),
		Registries: regs,
		NPM:        npm,
		Cache:      hybrid,
		VulnSeen:   cache.NewVulnQuerySeen(cfg.vulnCacheTTL()),
		Docs:       docs.New(),
		Vuln:       vulnSvc,
		Metrics:    coll,
	}
	b.Metrics.Register(ctx)

	b.pipeline = pipeline.New(pipeline.Options{
		Parsers:      b.Parsers,
		Registries:   b.Registries,
		Cache:        b.Cache,
		VulnSeen:     b.VulnSeen,
		VulnService:  b.Vuln,
		Docs:         b.Docs,
		Notifier:     notifier,
		Diagnostics:  b.buildDiagnostics,
		Metrics:      coll,
		DiagsEnabled: cfg.Diagnostics.Enabled,
		VulnEnabled:  cfg.Security.Enabled,
	})
	b.Debounce = debounce.New(cfg.debounceDelay(), func(uri, text string) {
		b.pipeline.Run(context.Background(), uri, text)
	})

	return b, nil
}

// Close releases the background sweeper and, if open, the persistent
// cache connection.
func (b *Backend) Close() {
	if b.Cache.Persistent != nil {
		b.Cache.Persistent.Close()
	}
	b.Cache.Close()
}

// DidOpen processes text immediately (open is never debounced) and
// installs the document's state.
func (b *Backend) DidOpen(ctx context.Context, uri, text string) {
	b.pipeline.Run(ctx, uri, text)
}

// DidChange schedules a debounced reprocessing of uri with the latest
// text.
func (b *Backend) DidChange(uri, text string) {
	b.Debounce.Change(uri, text)
}

// DidSave flushes any pending debounce immediately.
func (b *Backend) DidSave(uri, text string) {
	b.Debounce.Flush(uri, text)
}

// DidClose cancels any pending debounce task and forgets uri's document
// state; the caller is responsible for publishing an empty diagnostic set.
func (b *Backend) DidClose(uri string) {
	b.Debounce.Cancel(uri)
	b.Docs.Delete(uri)
}

// Scan runs the pipeline for one (uri, text) pair with the vulnerability
// pass inline rather than detached, so the cache is fully enriched when
// it returns. Used by cmd/depls's scan subcommand, which has no editor
// to notify and builds its report from the cache immediately after.
func (b *Backend) Scan(ctx context.Context, uri, text string) (depls.Ecosystem, []depls.Dependency) {
	b.pipeline.RunSync(ctx, uri, text)
	state, ok := b.Docs.Get(uri)
	if !ok {
		return depls.EcosystemUnknown, nil
	}
	return state.Ecosystem, state.Dependencies
}

// GenerateReport assembles a scan report for uri from the document's
// current state and whatever VersionInfo the cache holds. ok is false
// when uri is not an open (or scanned) document.
func (b *Backend) GenerateReport(ctx context.Context, uri string) (report.Report, bool) {
	state, ok := b.Docs.Get(uri)
	if !ok {
		return report.Report{}, false
	}
	prefix := classify.CachePrefix(state.Ecosystem)
	findings := make([]report.Finding, 0, len(state.Dependencies))
	for _, dep := range state.Dependencies {
		info, found := b.Cache.Get(ctx, depls.CacheKey(prefix, dep.Name))
		findings = append(findings, report.BuildFinding(state.Ecosystem, dep, info, found))
	}
	return report.Report{
		GeneratedAt:  time.Now().UTC(),
		File:         uri,
		Ecosystem:    state.Ecosystem.String(),
		Dependencies: findings,
	}, true
}

// FirstDocument returns the URI of the earliest-opened document still
// open, for dependi/generateReport's default-URI behavior.
func (b *Backend) FirstDocument() (string, bool) {
	return b.Docs.First()
}

// InlayHints builds the inlay-hint set for an open document's current
// state.
func (b *Backend) InlayHints(uri string) []lsp.InlayHint {
	state, ok := b.Docs.Get(uri)
	if !ok || !b.Config.InlayHints.Enabled {
		return nil
	}
	return lsp.BuildInlayHints(state.Ecosystem, state.Dependencies, b.Cache, lsp.HintOptions{
		ShowUpToDate: b.Config.InlayHints.ShowUpToDate,
		MinSeverity:  b.Config.MinSeverity(),
		Ignore:       b.ignoreList(),
	})
}

// Hover builds the hover card for the dependency at uri whose name
// matches, or nil if none is open or cached.
func (b *Backend) Hover(uri string, dep depls.Dependency) *lsp.Hover {
	state, ok := b.Docs.Get(uri)
	if !ok {
		return nil
	}
	return lsp.BuildHover(state.Ecosystem, dep, b.Cache)
}

// Completions builds completion items for the dependency at uri whose
// version span contains pos.
func (b *Backend) Completions(uri string, dep depls.Dependency, pos int) []lsp.CompletionItem {
	state, ok := b.Docs.Get(uri)
	if !ok {
		return nil
	}
	return lsp.BuildCompletions(state.Ecosystem, dep, pos, b.Cache)
}

// CodeActions builds the Quick Fix actions for the dependencies of an
// open document whose lines fall within [startLine, endLine]. The
// combined "Update all N dependencies" action counts only what is in
// range.
func (b *Backend) CodeActions(uri string, startLine, endLine int) []actions.CodeAction {
	state, ok := b.Docs.Get(uri)
	if !ok {
		return nil
	}
	var inRange []depls.Dependency
	for _, dep := range state.Dependencies {
		if dep.Line >= startLine && dep.Line <= endLine {
			inRange = append(inRange, dep)
		}
	}
	return actions.Build(state.Ecosystem, inRange, b.Cache)
}

func (b *Backend) buildDiagnostics(eco depls.Ecosystem, deps []depls.Dependency, c *cache.Hybrid) []depls.Diagnostic {
	return lsp.BuildDiagnostics(eco, deps, c, lsp.DiagOptions{
		MinSeverity:         b.Config.MinSeverity(),
		ShowVulnDiagnostics: b.Config.Security.ShowDiagnostics,
		Ignore:              b.ignoreList(),
	})
}

// ignoreList converts the configured string patterns into an
// internal/lsp.IgnoreList.
func (b *Backend) ignoreList() lsp.IgnoreList {
	return lsp.IgnoreList(b.Config.Ignore)
}

func toScopedRegistries(in map[string]NPMScopedConfig) map[string]registry.ScopedRegistry {
	out := make(map[string]registry.ScopedRegistry, len(in))
	for scope, c := range in {
		sr := registry.ScopedRegistry{URL: c.URL}
		if c.Auth != nil {
			sr.Auth = &registry.ScopedRegistryAuth{Variable: c.Auth.Variable}
		}
		out[scope] = sr
	}
	return out
}

func openPersistentCache(ctx context.Context, dir string) (*cache.Persistent, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("backend: resolve user cache dir: %w", err)
		}
		dir = base
	}
	path := filepath.Join(dir, "dependi", "cache.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("backend: create cache dir: %w", err)
	}
	return cache.OpenPersistent(ctx, path, 0)
}
