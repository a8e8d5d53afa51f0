package status

import (
	"testing"

	"github.com/depls-dev/depls"
)

func TestDecideYankedWinsOverEverything(t *testing.T) {
	dep := depls.Dependency{Name: "serde", Version: "1.0.1"}
	info := depls.VersionInfo{
		LatestStable:    "1.0.200",
		YankedVersions:  map[string]struct{}{"1.0.1": {}},
		Deprecated:      true,
		Vulnerabilities: []depls.Vulnerability{{Severity: depls.SeverityHigh}},
	}
	if got := Decide(dep, info, true, depls.SeverityLow); got != StateYanked {
		t.Fatalf("expected StateYanked, got %v", got)
	}
}

func TestDecideDeprecatedWinsOverVulnerableAndOutdated(t *testing.T) {
	dep := depls.Dependency{Name: "foo", Version: "1.0.0"}
	info := depls.VersionInfo{
		LatestStable:    "2.0.0",
		Deprecated:      true,
		Vulnerabilities: []depls.Vulnerability{{Severity: depls.SeverityCritical}},
	}
	if got := Decide(dep, info, true, depls.SeverityLow); got != StateDeprecated {
		t.Fatalf("expected StateDeprecated, got %v", got)
	}
}

func TestDecideVulnerableWinsOverOutdated(t *testing.T) {
	dep := depls.Dependency{Name: "foo", Version: "1.0.0"}
	info := depls.VersionInfo{
		LatestStable:    "2.0.0",
		Vulnerabilities: []depls.Vulnerability{{Severity: depls.SeverityMedium}},
	}
	if got := Decide(dep, info, true, depls.SeverityLow); got != StateVulnerable {
		t.Fatalf("expected StateVulnerable, got %v", got)
	}
}

func TestDecideVulnerableFilteredByMinSeverity(t *testing.T) {
	dep := depls.Dependency{Name: "foo", Version: "1.0.0"}
	info := depls.VersionInfo{
		LatestStable:    "2.0.0",
		Vulnerabilities: []depls.Vulnerability{{Severity: depls.SeverityLow}},
	}
	if got := Decide(dep, info, true, depls.SeverityHigh); got != StateOutdated {
		t.Fatalf("expected low-severity finding below min_severity to fall through to StateOutdated, got %v", got)
	}
}

func TestDecideOutdatedAndUpToDate(t *testing.T) {
	upToDate := Decide(depls.Dependency{Version: "1.0.200"}, depls.VersionInfo{LatestStable: "1.0.200"}, true, depls.SeverityLow)
	if upToDate != StateUpToDate {
		t.Fatalf("expected StateUpToDate, got %v", upToDate)
	}
	outdated := Decide(depls.Dependency{Version: "1.0.0"}, depls.VersionInfo{LatestStable: "1.0.200"}, true, depls.SeverityLow)
	if outdated != StateOutdated {
		t.Fatalf("expected StateOutdated, got %v", outdated)
	}
}

func TestDecideLocalAndUnknown(t *testing.T) {
	local := Decide(depls.Dependency{Version: "workspace:*"}, depls.VersionInfo{}, false, depls.SeverityLow)
	if local != StateLocal {
		t.Fatalf("expected StateLocal, got %v", local)
	}
	unknown := Decide(depls.Dependency{Version: "1.0.0"}, depls.VersionInfo{}, false, depls.SeverityLow)
	if unknown != StateUnknown {
		t.Fatalf("expected StateUnknown, got %v", unknown)
	}
}

func TestIsLocalRecognizesAllDocumentedForms(t *testing.T) {
	cases := []string{
		"./local", "../local", "/abs/path", "file:///abs", "git+https://x",
		"git@github.com:a/b", "http://x", "https://x", "workspace:*",
		"link:../pkg", "portal:../pkg", "github:user/repo", "gitlab:user/repo",
		"bitbucket:user/repo",
	}
	for _, c := range cases {
		if !IsLocal(c) {
			t.Errorf("expected %q to be local", c)
		}
	}
	if IsLocal("1.2.3") {
		t.Errorf("expected a plain version to not be local")
	}
}

func TestNormalizeStripsOperatorsAndPads(t *testing.T) {
	cases := map[string]string{
		"^1.2.3":  "1.2.3",
		"~1.2":    "1.2.0",
		">=1.0.0": "1.0.0",
		"v2":      "2.0.0",
		"1.0, 2.0": "1.0.0",
	}
	for in, want := range cases {
		v, ok := Normalize(in)
		if !ok {
			t.Errorf("Normalize(%q): expected ok", in)
			continue
		}
		if v.String() != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, v.String(), want)
		}
	}
}

func TestNormalizeFallsBackOnUnparseable(t *testing.T) {
	if _, ok := Normalize("not-a-version-at-all-@#$"); ok {
		t.Errorf("expected unparseable input to report ok=false")
	}
}

func TestIsOutdatedStrictlyGreater(t *testing.T) {
	if IsOutdated("1.0.200", "1.0.200") {
		t.Errorf("equal versions must not be outdated")
	}
	if !IsOutdated("1.0.0", "1.0.200") {
		t.Errorf("expected 1.0.0 to be outdated relative to 1.0.200")
	}
}

func TestClassifyUpdateThirdComponentBumpIsMinor(t *testing.T) {
	// 1.0.0 -> 1.0.200 bumps the third dotted component of the written
	// string, but the normalized comparison reads major.minor.patch, so
	// the step classifies as minor.
	got := ClassifyUpdate("1.0.0", "1.0.200")
	if got != UpdateTypeMinor {
		t.Fatalf("expected UpdateTypeMinor for 1.0.0 -> 1.0.200, got %v", got)
	}
	if !got.IsPreferred() {
		t.Fatalf("expected minor update to be preferred")
	}
}

func TestClassifyUpdateMajorIsNotPreferred(t *testing.T) {
	got := ClassifyUpdate("1.0.0", "2.0.0")
	if got != UpdateTypeMajor {
		t.Fatalf("expected UpdateTypeMajor, got %v", got)
	}
	if got.IsPreferred() {
		t.Fatalf("expected major update to not be preferred")
	}
}

func TestDiagnosticSeverityForMapping(t *testing.T) {
	if DiagnosticSeverityFor(StateOutdated, depls.SeverityUnknown) != SevHint {
		t.Errorf("outdated must always be Hint")
	}
	if DiagnosticSeverityFor(StateYanked, depls.SeverityUnknown) != SevWarning {
		t.Errorf("yanked must be Warning")
	}
	if DiagnosticSeverityFor(StateDeprecated, depls.SeverityUnknown) != SevWarning {
		t.Errorf("deprecated must be Warning")
	}
	if DiagnosticSeverityFor(StateVulnerable, depls.SeverityCritical) != SevError {
		t.Errorf("critical vulnerability must be Error")
	}
	if DiagnosticSeverityFor(StateVulnerable, depls.SeverityHigh) != SevError {
		t.Errorf("high vulnerability must be Error")
	}
	if DiagnosticSeverityFor(StateVulnerable, depls.SeverityMedium) != SevWarning {
		t.Errorf("medium vulnerability must be Warning")
	}
	if DiagnosticSeverityFor(StateVulnerable, depls.SeverityLow) != SevHint {
		t.Errorf("low vulnerability must be Hint")
	}
	if DiagnosticSeverityFor(StateLocal, depls.SeverityUnknown) != SevHint {
		t.Errorf("local must be Hint")
	}
}
