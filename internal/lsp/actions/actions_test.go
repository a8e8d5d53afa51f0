package actions

import (
	"context"
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

// serde 1.0.0 -> 1.0.200 is a Minor bump, not
// Major, and its Quick Fix title reads accordingly.
func TestBuildSingleOutdatedIsMinorNotMajor(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "crates:serde", depls.VersionInfo{LatestStable: "1.0.200"})
	dep := depls.Dependency{Name: "serde", Version: "1.0.0", Line: 1, VersionSpan: depls.Span{Start: 9, End: 14}}

	got := Build(depls.EcosystemRust, []depls.Dependency{dep}, h)
	if len(got) != 1 {
		t.Fatalf("expected exactly one action, got %+v", got)
	}
	a := got[0]
	if a.Title != "🟡 Update serde to 1.0.200 (minor)" {
		t.Errorf("unexpected title: %q", a.Title)
	}
	if !a.IsPreferred {
		t.Errorf("expected minor update action to be preferred")
	}
	if len(a.Edits) != 1 || a.Edits[0].Span != dep.VersionSpan || a.Edits[0].NewText != "1.0.200" {
		t.Errorf("unexpected edit: %+v", a.Edits)
	}
}

// Two outdated npm dependencies produce two
// individual actions plus one combined action with two edits.
func TestBuildCombinesTwoOrMoreOutdated(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "npm:react", depls.VersionInfo{LatestStable: "18.2.0"})
	h.Insert(context.Background(), "npm:lodash", depls.VersionInfo{LatestStable: "4.17.21"})
	deps := []depls.Dependency{
		{Name: "react", Version: "18.0.0", Line: 1, VersionSpan: depls.Span{Start: 20, End: 27}},
		{Name: "lodash", Version: "4.17.0", Line: 2, VersionSpan: depls.Span{Start: 20, End: 27}},
	}

	got := Build(depls.EcosystemJavaScript, deps, h)
	if len(got) != 3 {
		t.Fatalf("expected two individual actions plus one combined, got %d: %+v", len(got), got)
	}
	combined := got[len(got)-1]
	if combined.Title != "Update all 2 dependencies" {
		t.Errorf("unexpected combined title: %q", combined.Title)
	}
	if len(combined.Edits) != 2 {
		t.Errorf("expected combined action to carry both edits, got %+v", combined.Edits)
	}
}

func TestBuildSkipsUpToDateAndUnknown(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "crates:serde", depls.VersionInfo{LatestStable: "1.0.200"})
	upToDate := depls.Dependency{Name: "serde", Version: "1.0.200", Line: 1, VersionSpan: depls.Span{Start: 9, End: 17}}
	unknown := depls.Dependency{Name: "unheard-of", Version: "0.1.0", Line: 2, VersionSpan: depls.Span{Start: 9, End: 14}}

	got := Build(depls.EcosystemRust, []depls.Dependency{upToDate, unknown}, h)
	if len(got) != 0 {
		t.Fatalf("expected no actions, got %+v", got)
	}
}

func TestReplacementVersionPrefixesGoVersionsOnly(t *testing.T) {
	h := newCache(t)
	h.Insert(context.Background(), "gomod:github.com/pkg/errors", depls.VersionInfo{LatestStable: "0.9.1"})
	dep := depls.Dependency{Name: "github.com/pkg/errors", Version: "0.9.0", Line: 3, VersionSpan: depls.Span{Start: 30, End: 36}}

	got := Build(depls.EcosystemGo, []depls.Dependency{dep}, h)
	if len(got) != 1 || got[0].Edits[0].NewText != "v0.9.1" {
		t.Fatalf("expected go version prefixed with v, got %+v", got)
	}
}
