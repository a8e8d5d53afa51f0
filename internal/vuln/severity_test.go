package vuln

import (
	"testing"

	"github.com/depls-dev/depls"
)

func TestSeverityFromScore(t *testing.T) {
	tt := []struct {
		score float64
		want  depls.Severity
	}{
		{0.0, depls.SeverityLow},
		{3.9, depls.SeverityLow},
		{4.0, depls.SeverityMedium},
		{6.9, depls.SeverityMedium},
		{7.0, depls.SeverityHigh},
		{8.9, depls.SeverityHigh},
		{9.0, depls.SeverityCritical},
		{10.0, depls.SeverityCritical},
	}
	for _, tc := range tt {
		if got := severityFromScore(tc.score, true); got != tc.want {
			t.Errorf("severityFromScore(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
	// Vector strings and unparseable values fall back to Medium.
	if got := severityFromScore(0, false); got != depls.SeverityMedium {
		t.Errorf("fallback = %v, want Medium", got)
	}
}

func TestPreferredAlias(t *testing.T) {
	if got := preferredAlias("GHSA-abcd-1234", []string{"OSV-1", "CVE-2024-12345"}); got != "CVE-2024-12345" {
		t.Errorf("preferredAlias = %q, want the CVE alias", got)
	}
	if got := preferredAlias("GHSA-abcd-1234", []string{"OSV-1"}); got != "GHSA-abcd-1234" {
		t.Errorf("preferredAlias = %q, want the native id", got)
	}
}

func TestPreferredURL(t *testing.T) {
	refs := []osvReference{
		{Type: "REPORT", URL: "https://example.com/report"},
		{Type: "ADVISORY", URL: "https://example.com/advisory"},
	}
	if got := preferredURL(refs); got != "https://example.com/advisory" {
		t.Errorf("preferredURL = %q, want the advisory link", got)
	}
	if got := preferredURL(refs[:1]); got != "https://example.com/report" {
		t.Errorf("preferredURL = %q, want any web link", got)
	}
	if got := preferredURL(nil); got != "" {
		t.Errorf("preferredURL = %q, want empty", got)
	}
}
