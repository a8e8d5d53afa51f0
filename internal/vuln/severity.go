package vuln

import (
	"strings"

	"github.com/depls-dev/depls"
)

// severityFromScore buckets a numeric CVSS base score, deferring to
// depls.SeverityFromCVSS for the thresholds. Only the
// numeric-score-to-bucket mapping is needed here, not full vector
// decomposition.
func severityFromScore(score float64, ok bool) depls.Severity {
	return depls.SeverityFromCVSS(score, ok)
}

// preferredAlias picks a CVE-style alias over the service's native
// identifier when one is present.
func preferredAlias(nativeID string, aliases []string) string {
	for _, a := range aliases {
		if strings.HasPrefix(a, "CVE-") {
			return a
		}
	}
	return nativeID
}

// osvReference is the subset of an OSV "references" entry this adapter
// needs to pick one external URL per finding.
type osvReference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// preferredURL selects one external URL per finding, preferring an
// "ADVISORY" reference, then any link, then none.
func preferredURL(refs []osvReference) string {
	var anyURL string
	for _, r := range refs {
		if r.URL == "" {
			continue
		}
		if anyURL == "" {
			anyURL = r.URL
		}
		if strings.EqualFold(r.Type, "ADVISORY") {
			return r.URL
		}
	}
	return anyURL
}
