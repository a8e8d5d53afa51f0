package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/docs"
	"github.com/depls-dev/depls/internal/parser"
	"github.com/depls-dev/depls/internal/registry"
	"github.com/depls-dev/depls/internal/vuln"
)

type stubParser struct{ deps []depls.Dependency }

func (s stubParser) Parse(string) []depls.Dependency { return s.deps }

type stubAdapter struct {
	info map[string]depls.VersionInfo
	err  map[string]error
}

func (a stubAdapter) GetVersionInfo(_ context.Context, name string) (depls.VersionInfo, error) {
	if err, ok := a.err[name]; ok {
		return depls.VersionInfo{}, err
	}
	return a.info[name], nil
}

type stubVulnService struct {
	results []vuln.Result
	calls   int
}

func (s *stubVulnService) QueryBatch(_ context.Context, keys []vuln.QueryKey) ([]vuln.Result, error) {
	s.calls++
	return s.results, nil
}

type stubNotifier struct {
	mu          sync.Mutex
	published   map[string][]depls.Diagnostic
	hintRefresh int
	diagRefresh int
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{published: map[string][]depls.Diagnostic{}}
}

func (n *stubNotifier) PublishDiagnostics(uri string, diags []depls.Diagnostic) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published[uri] = diags
}
func (n *stubNotifier) RefreshInlayHints() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hintRefresh++
}
func (n *stubNotifier) RefreshDiagnostics() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.diagRefresh++
}

func noopDiagnostics(depls.Ecosystem, []depls.Dependency, *cache.Hybrid) []depls.Diagnostic {
	return nil
}

func TestRunFetchesAndCachesUniqueDependencies(t *testing.T) {
	ctx := context.Background()
	dep := depls.Dependency{Name: "serde", Version: "1.0.0", VersionSpan: depls.Span{Start: 8, End: 15}}
	adapter := stubAdapter{info: map[string]depls.VersionInfo{"serde": {LatestStable: "1.0.200"}}}

	h := cache.NewHybrid(ctx, cache.NewVolatile(time.Hour), nil)
	defer h.Close()
	notifier := newStubNotifier()

	p := New(Options{
		Parsers:      parser.Registry{depls.EcosystemRust: stubParser{deps: []depls.Dependency{dep}}},
		Registries:   registry.Set{depls.EcosystemRust: adapter},
		Cache:        h,
		VulnSeen:     cache.NewVulnQuerySeen(time.Hour),
		Docs:         docs.New(),
		Notifier:     notifier,
		Diagnostics:  noopDiagnostics,
		DiagsEnabled: true,
	})

	p.Run(ctx, "file:///Cargo.toml", "[dependencies]\nserde = \"1.0.0\"\n")

	info, ok := h.Get(ctx, "crates:serde")
	if !ok || info.LatestStable != "1.0.200" {
		t.Fatalf("expected serde to be cached with latest_stable, got %+v ok=%v", info, ok)
	}
	if notifier.hintRefresh != 1 {
		t.Fatalf("expected exactly one hint refresh, got %d", notifier.hintRefresh)
	}
	state, ok := docsGet(p, "file:///Cargo.toml")
	if !ok || len(state.Dependencies) != 1 {
		t.Fatalf("expected document state to be installed with one dependency")
	}
}

func docsGet(p *Pipeline, uri string) (docs.DocumentState, bool) {
	return p.opts.Docs.Get(uri)
}

func TestRunIsIdempotentOnCacheHit(t *testing.T) {
	ctx := context.Background()
	dep := depls.Dependency{Name: "serde", Version: "1.0.200"}
	calls := 0
	adapter := countingAdapter{inner: stubAdapter{info: map[string]depls.VersionInfo{"serde": {LatestStable: "1.0.200"}}}, calls: &calls}

	h := cache.NewHybrid(ctx, cache.NewVolatile(time.Hour), nil)
	defer h.Close()

	p := New(Options{
		Parsers:    parser.Registry{depls.EcosystemRust: stubParser{deps: []depls.Dependency{dep}}},
		Registries: registry.Set{depls.EcosystemRust: adapter},
		Cache:      h,
		VulnSeen:   cache.NewVulnQuerySeen(time.Hour),
		Docs:       docs.New(),
	})

	p.Run(ctx, "file:///Cargo.toml", "text")
	p.Run(ctx, "file:///Cargo.toml", "text")

	if calls != 1 {
		t.Fatalf("expected exactly one registry fetch across two idempotent runs, got %d", calls)
	}
}

type countingAdapter struct {
	inner registry.Adapter
	calls *int
}

func (a countingAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	*a.calls++
	return a.inner.GetVersionInfo(ctx, name)
}

func TestRunDetachesVulnerabilityPassAndEnrichesCache(t *testing.T) {
	ctx := context.Background()
	dep := depls.Dependency{Name: "serde", Version: "1.0.0"}
	adapter := stubAdapter{info: map[string]depls.VersionInfo{"serde": {LatestStable: "1.0.200"}}}

	h := cache.NewHybrid(ctx, cache.NewVolatile(time.Hour), nil)
	defer h.Close()
	svc := &stubVulnService{results: []vuln.Result{{Vulnerabilities: []depls.Vulnerability{{ID: "GHSA-x", Severity: depls.SeverityHigh}}}}}
	notifier := newStubNotifier()

	p := New(Options{
		Parsers:     parser.Registry{depls.EcosystemRust: stubParser{deps: []depls.Dependency{dep}}},
		Registries:  registry.Set{depls.EcosystemRust: adapter},
		Cache:       h,
		VulnSeen:    cache.NewVulnQuerySeen(time.Hour),
		VulnService: svc,
		Docs:        docs.New(),
		Notifier:    notifier,
		VulnEnabled: true,
	})

	p.Run(ctx, "file:///Cargo.toml", "text")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		info, _ := h.Get(ctx, "crates:serde")
		if len(info.Vulnerabilities) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected background vulnerability pass to enrich the cached entry")
}
