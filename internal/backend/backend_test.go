package backend

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/registry"
	"github.com/depls-dev/depls/internal/testhelpers"
	"github.com/depls-dev/depls/internal/vuln"
	"github.com/depls-dev/depls/internal/vuln/mock_vuln"
)

type stubAdapter struct {
	info map[string]depls.VersionInfo
}

func (a stubAdapter) GetVersionInfo(_ context.Context, name string) (depls.VersionInfo, error) {
	if vi, ok := a.info[name]; ok {
		return vi, nil
	}
	return depls.VersionInfo{}, &depls.Error{Op: "stub", Kind: depls.ErrMiss}
}

func newTestBackend(t *testing.T, svc vuln.Service) *Backend {
	t.Helper()
	regs := registry.Set{
		depls.EcosystemRust: stubAdapter{info: map[string]depls.VersionInfo{
			"serde": {LatestStable: "1.0.200", AllVersions: []string{"1.0.200", "1.0.0"}},
		}},
	}
	b, err := New(testhelpers.Context(t), DefaultConfig(), nil,
		WithRegistries(regs, nil),
		WithVulnService(svc),
		WithCacheDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func TestScanEnrichesReportWithVulnerabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock_vuln.NewMockService(ctrl)
	svc.EXPECT().QueryBatch(gomock.Any(), gomock.Any()).Return([]vuln.Result{
		{Vulnerabilities: []depls.Vulnerability{{
			ID:          "CVE-2025-0001",
			Severity:    depls.SeverityHigh,
			Description: "deserialization flaw",
		}}},
	}, nil)

	b := newTestBackend(t, svc)
	ctx := testhelpers.Context(t)

	uri := "file:///proj/Cargo.toml"
	eco, deps := b.Scan(ctx, uri, "[dependencies]\nserde = \"1.0.0\"\n")
	if eco != depls.EcosystemRust {
		t.Fatalf("ecosystem = %v, want Rust", eco)
	}
	if len(deps) != 1 || deps[0].Name != "serde" {
		t.Fatalf("unexpected dependencies: %+v", deps)
	}

	rep, ok := b.GenerateReport(ctx, uri)
	if !ok {
		t.Fatalf("GenerateReport: document not registered")
	}
	if len(rep.Dependencies) != 1 {
		t.Fatalf("got %d findings, want 1", len(rep.Dependencies))
	}
	f := rep.Dependencies[0]
	if f.LatestStable != "1.0.200" || !f.Outdated {
		t.Errorf("finding should be outdated against 1.0.200: %+v", f)
	}
	if len(f.Vulnerabilities) != 1 || f.Vulnerabilities[0].ID != "CVE-2025-0001" {
		t.Errorf("vulnerability enrichment missing from finding: %+v", f)
	}
	if rep.VulnerableCount(depls.SeverityLow) != 1 {
		t.Errorf("VulnerableCount = %d, want 1", rep.VulnerableCount(depls.SeverityLow))
	}
}

func TestGenerateReportUnknownURI(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := newTestBackend(t, mock_vuln.NewMockService(ctrl))

	if _, ok := b.GenerateReport(testhelpers.Context(t), "file:///never/opened/Cargo.toml"); ok {
		t.Fatalf("expected ok=false for an unopened document")
	}
}

func TestConfigMergeOverDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cache.DebounceMS != 200 || !cfg.Security.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.MinSeverity(); got != depls.SeverityLow {
		t.Errorf("default MinSeverity = %v, want Low", got)
	}
	cfg.Security.MinSeverity = "high"
	if got := cfg.MinSeverity(); got != depls.SeverityHigh {
		t.Errorf("MinSeverity = %v, want High", got)
	}
}
