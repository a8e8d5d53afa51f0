package lsp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
)

func newCache(t *testing.T) *cache.Hybrid {
	t.Helper()
	h := cache.NewHybrid(context.Background(), cache.NewVolatile(time.Hour), nil)
	t.Cleanup(h.Close)
	return h
}

// Rust, up-to-date serde -> "✓" hint, zero
// diagnostics.
func TestScenarioRustUpToDate(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "crates:serde", depls.VersionInfo{
		LatestStable: "1.0.200",
		AllVersions:  []string{"1.0.200", "1.0.199"},
	})
	dep := depls.Dependency{Name: "serde", Version: "1.0.200", Line: 1, VersionSpan: depls.Span{Start: 9, End: 17}}

	hints := BuildInlayHints(depls.EcosystemRust, []depls.Dependency{dep}, h, HintOptions{ShowUpToDate: true})
	if len(hints) != 1 || hints[0].Label != "✓" || hints[0].Column != dep.VersionSpan.End+1 {
		t.Fatalf("expected a single up-to-date hint at column %d, got %+v", dep.VersionSpan.End+1, hints)
	}

	diags := BuildDiagnostics(depls.EcosystemRust, []depls.Dependency{dep}, h, DiagOptions{ShowVulnDiagnostics: true})
	if len(diags) != 0 {
		t.Fatalf("expected zero diagnostics for up-to-date dependency, got %+v", diags)
	}
}

// Rust, outdated serde 1.0.0 -> 1.0.200 yields an "⬆"
// hint and one Hint-severity "outdated" diagnostic.
func TestScenarioRustOutdated(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "crates:serde", depls.VersionInfo{LatestStable: "1.0.200"})
	dep := depls.Dependency{Name: "serde", Version: "1.0.0", Line: 1, VersionSpan: depls.Span{Start: 9, End: 14}}

	hints := BuildInlayHints(depls.EcosystemRust, []depls.Dependency{dep}, h, HintOptions{})
	if len(hints) != 1 || hints[0].Label != "⬆ 1.0.200" {
		t.Fatalf("expected an outdated hint mentioning 1.0.200, got %+v", hints)
	}

	diags := BuildDiagnostics(depls.EcosystemRust, []depls.Dependency{dep}, h, DiagOptions{ShowVulnDiagnostics: true})
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Code != "outdated" || d.Severity != depls.DiagSevHint || d.Line != 1 || d.Span != dep.VersionSpan {
		t.Fatalf("unexpected diagnostic shape: %+v", d)
	}
}

// Rust, yanked version in use. Exactly one diagnostic
// (yanked-version, Warning); deprecation/vulnerability never surface
// because Yanked wins the precedence.
func TestScenarioRustYankedWinsPrecedence(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "crates:serde", depls.VersionInfo{
		LatestStable:    "1.0.200",
		YankedVersions:  map[string]struct{}{"1.0.1": {}},
		Vulnerabilities: []depls.Vulnerability{{ID: "GHSA-x", Severity: depls.SeverityHigh}},
	})
	dep := depls.Dependency{Name: "serde", Version: "1.0.1", Line: 1, VersionSpan: depls.Span{Start: 9, End: 14}}

	diags := BuildDiagnostics(depls.EcosystemRust, []depls.Dependency{dep}, h, DiagOptions{ShowVulnDiagnostics: true})
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %+v", len(diags), diags)
	}
	if diags[0].Code != "yanked-version" || diags[0].Severity != depls.DiagSevWarning {
		t.Fatalf("expected yanked-version/Warning diagnostic, got %+v", diags[0])
	}

	hints := BuildInlayHints(depls.EcosystemRust, []depls.Dependency{dep}, h, HintOptions{})
	if len(hints) != 1 || hints[0].Label != "🚫 Yanked → 1.0.200" {
		t.Fatalf("expected yanked hint mentioning latest stable, got %+v", hints)
	}
}

// npm, two outdated dependencies -> two Hint-severity
// "outdated" diagnostics.
func TestScenarioNPMTwoOutdated(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "npm:react", depls.VersionInfo{LatestStable: "18.2.0"})
	h.Insert(context.Background(), "npm:lodash", depls.VersionInfo{LatestStable: "4.17.21"})
	deps := []depls.Dependency{
		{Name: "react", Version: "18.0.0", Line: 1, VersionSpan: depls.Span{Start: 20, End: 27}},
		{Name: "lodash", Version: "4.17.0", Line: 2, VersionSpan: depls.Span{Start: 20, End: 27}},
	}

	diags := BuildDiagnostics(depls.EcosystemJavaScript, deps, h, DiagOptions{ShowVulnDiagnostics: true})
	if len(diags) != 2 {
		t.Fatalf("expected two diagnostics, got %+v", diags)
	}
	for _, d := range diags {
		if d.Code != "outdated" || d.Severity != depls.DiagSevHint {
			t.Errorf("expected outdated/Hint, got %+v", d)
		}
	}
}

func TestIgnoreListFiltersExactAndGlob(t *testing.T) {
	l := IgnoreList{"lodash", "@types/*"}
	if !l.Matches("lodash") {
		t.Errorf("expected exact match")
	}
	if !l.Matches("@types/node") {
		t.Errorf("expected glob match")
	}
	if l.Matches("react") {
		t.Errorf("expected no match for unrelated package")
	}
}

func TestBuildCompletionsOffersTopTenNewestFirst(t *testing.T) {
	h := newCache(t)
	versions := make([]string, 0, 15)
	for i := 15; i >= 1; i-- {
		versions = append(versions, fmt.Sprintf("%d.0.0", i))
	}
	h.Insert(context.Background(), "npm:react", depls.VersionInfo{AllVersions: versions})
	dep := depls.Dependency{Name: "react", Version: "1.0.0", VersionSpan: depls.Span{Start: 10, End: 16}}

	items := BuildCompletions(depls.EcosystemJavaScript, dep, 12, h)
	if len(items) != 10 {
		t.Fatalf("expected top 10 items, got %d", len(items))
	}
	if items[0].Label != "15.0.0" {
		t.Fatalf("expected newest version first, got %q", items[0].Label)
	}
}

func TestBuildCompletionsOutsideSpanReturnsNil(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "npm:react", depls.VersionInfo{AllVersions: []string{"18.0.0"}})
	dep := depls.Dependency{Name: "react", VersionSpan: depls.Span{Start: 10, End: 16}}

	if items := BuildCompletions(depls.EcosystemJavaScript, dep, 2, h); items != nil {
		t.Fatalf("expected nil outside span, got %+v", items)
	}
}
