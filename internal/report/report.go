// Package report renders a CLI vulnerability-scan result: a total
// count, a per-severity breakdown, and per-dependency rows, reachable
// as both JSON and Markdown.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/registry"
	"github.com/depls-dev/depls/internal/status"
)

// Finding is one scanned dependency's outcome.
type Finding struct {
	Name            string                `json:"name"`
	Version         string                `json:"version"`
	PackageURL      string                `json:"purl"`
	LatestStable    string                `json:"latest_stable,omitempty"`
	Outdated        bool                  `json:"outdated"`
	Yanked          bool                  `json:"yanked"`
	Deprecated      bool                  `json:"deprecated"`
	Vulnerabilities []depls.Vulnerability `json:"vulnerabilities,omitempty"`
}

// MaxSeverity returns the highest severity among f's vulnerabilities, or
// SeverityUnknown if there are none.
func (f Finding) MaxSeverity() depls.Severity {
	max := depls.SeverityUnknown
	for _, v := range f.Vulnerabilities {
		if v.Severity > max {
			max = v.Severity
		}
	}
	return max
}

// Report is the complete scan result for one manifest file.
type Report struct {
	GeneratedAt  time.Time `json:"generated_at"`
	File         string    `json:"file"`
	Ecosystem    string    `json:"ecosystem"`
	Dependencies []Finding `json:"dependencies"`
}

// SeverityCounts tallies findings by their maximum severity, counting only
// findings with at least one vulnerability.
func (r Report) SeverityCounts() map[depls.Severity]int {
	counts := make(map[depls.Severity]int)
	for _, f := range r.Dependencies {
		if len(f.Vulnerabilities) == 0 {
			continue
		}
		counts[f.MaxSeverity()]++
	}
	return counts
}

// VulnerableCount reports how many findings carry at least one
// vulnerability meeting minSeverity.
func (r Report) VulnerableCount(minSeverity depls.Severity) int {
	n := 0
	for _, f := range r.Dependencies {
		for _, v := range f.Vulnerabilities {
			if v.Severity >= minSeverity {
				n++
				break
			}
		}
	}
	return n
}

// BuildFinding assembles one Finding from a dependency and its (possibly
// absent) cached VersionInfo, purl-tagging it per its ecosystem.
func BuildFinding(eco depls.Ecosystem, dep depls.Dependency, info depls.VersionInfo, found bool) Finding {
	purl := registry.PackageURL(eco, dep)
	f := Finding{
		Name:       dep.Name,
		Version:    dep.Version,
		PackageURL: purl.ToString(),
	}
	if !found {
		return f
	}
	f.LatestStable = info.LatestStable
	f.Outdated = info.HasLatestStable() && compareOutdated(dep.Version, info.LatestStable)
	f.Yanked = info.IsYanked(dep.Version)
	f.Deprecated = info.Deprecated
	f.Vulnerabilities = info.Vulnerabilities
	return f
}

// compareOutdated derives a Finding's outdated flag with the status
// engine's normalized semver comparison, so a report and the editor
// agree on which dependencies are outdated.
func compareOutdated(pinned, latestStable string) bool {
	return status.IsOutdated(pinned, latestStable)
}

// JSON renders r as indented JSON.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Markdown renders r as a Markdown report: a summary line, a per-severity
// breakdown, and a table of findings.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dependency scan: %s\n\n", r.File)
	fmt.Fprintf(&b, "Generated: %s  \nEcosystem: %s  \nDependencies scanned: %d\n\n",
		r.GeneratedAt.Format(time.RFC3339), r.Ecosystem, len(r.Dependencies))

	counts := r.SeverityCounts()
	if len(counts) > 0 {
		b.WriteString("## Severity breakdown\n\n")
		for _, sev := range []depls.Severity{depls.SeverityCritical, depls.SeverityHigh, depls.SeverityMedium, depls.SeverityLow} {
			if n := counts[sev]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", sev, n)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	b.WriteString("| Package | Version | Latest | Status | Vulnerabilities |\n")
	b.WriteString("|---|---|---|---|---|\n")

	findings := append([]Finding(nil), r.Dependencies...)
	sort.Slice(findings, func(i, j int) bool { return findings[i].Name < findings[j].Name })

	for _, f := range findings {
		status := "ok"
		switch {
		case f.Yanked:
			status = "yanked"
		case f.Deprecated:
			status = "deprecated"
		case len(f.Vulnerabilities) > 0:
			status = fmt.Sprintf("%d vuln(s)", len(f.Vulnerabilities))
		case f.Outdated:
			status = "outdated"
		}
		vulnIDs := make([]string, len(f.Vulnerabilities))
		for i, v := range f.Vulnerabilities {
			vulnIDs[i] = v.ID
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			f.Name, f.Version, f.LatestStable, status, strings.Join(vulnIDs, ", "))
	}
	return b.String()
}

// Summary renders r as a few terminal-friendly lines: the scan target,
// the dependency count, and a per-severity tally.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %d dependencies scanned\n", r.File, r.Ecosystem, len(r.Dependencies))

	counts := r.SeverityCounts()
	if len(counts) == 0 {
		b.WriteString("no known vulnerabilities\n")
		return b.String()
	}
	for _, sev := range []depls.Severity{depls.SeverityCritical, depls.SeverityHigh, depls.SeverityMedium, depls.SeverityLow} {
		if n := counts[sev]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", sev, n)
		}
	}
	return b.String()
}
