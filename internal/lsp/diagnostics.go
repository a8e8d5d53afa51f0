package lsp

import (
	"fmt"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/status"
)

// DiagOptions mirrors the diagnostics/security initialization
// options that affect diagnostic construction.
type DiagOptions struct {
	MinSeverity         depls.Severity
	ShowVulnDiagnostics bool
	Ignore              IgnoreList
}

const (
	sourceDependi         = "dependi"
	sourceDependiSecurity = "dependi-security"
)

// BuildDiagnostics produces the diagnostic set for one document. At most
// one diagnostic is emitted per dependency (Yanked beats Deprecated beats
// Vulnerable beats Outdated), mirroring the same precedence status.Decide
// already applies.
func BuildDiagnostics(eco depls.Ecosystem, deps []depls.Dependency, c *cache.Hybrid, opts DiagOptions) []depls.Diagnostic {
	prefix := classify.CachePrefix(eco)
	var diags []depls.Diagnostic
	for _, dep := range deps {
		if opts.Ignore.Matches(dep.Name) {
			continue
		}
		info, found := c.Volatile.Get(depls.CacheKey(prefix, dep.Name))
		state := status.Decide(dep, info, found, opts.MinSeverity)

		switch state {
		case status.StateYanked:
			diags = append(diags, depls.Diagnostic{
				Line:     dep.Line,
				Span:     dep.VersionSpan,
				Severity: toLSPSeverity(status.DiagnosticSeverityFor(state, 0)),
				Source:   sourceDependi,
				Code:     status.DiagnosticCode(state, 0),
				Message:  fmt.Sprintf("%s %s has been yanked; latest is %s.", dep.Name, dep.Version, info.LatestStable),
			})
		case status.StateDeprecated:
			diags = append(diags, depls.Diagnostic{
				Line:     dep.Line,
				Span:     dep.VersionSpan,
				Severity: toLSPSeverity(status.DiagnosticSeverityFor(state, 0)),
				Source:   sourceDependi,
				Code:     status.DiagnosticCode(state, 0),
				Message:  fmt.Sprintf("%s is deprecated.", dep.Name),
			})
		case status.StateVulnerable:
			if !opts.ShowVulnDiagnostics {
				continue
			}
			max := status.MaxSeverity(info.Vulnerabilities)
			diags = append(diags, depls.Diagnostic{
				Line:     dep.Line,
				Span:     dep.VersionSpan,
				Severity: toLSPSeverity(status.DiagnosticSeverityFor(state, max)),
				Source:   sourceDependiSecurity,
				Code:     status.DiagnosticCode(state, len(info.Vulnerabilities)),
				Message:  fmt.Sprintf("%s %s has %d known vulnerabilities (highest severity: %s).", dep.Name, dep.Version, len(info.Vulnerabilities), max),
			})
		case status.StateOutdated:
			diags = append(diags, depls.Diagnostic{
				Line:     dep.Line,
				Span:     dep.VersionSpan,
				Severity: toLSPSeverity(status.DiagnosticSeverityFor(state, 0)),
				Source:   sourceDependi,
				Code:     status.DiagnosticCode(state, 0),
				Message:  fmt.Sprintf("%s %s is outdated; latest is %s.", dep.Name, dep.Version, info.LatestStable),
			})
		}
		// Unknown and Local never produce a diagnostic (the
		// UI never shows registry/network errors as diagnostics; Unknown
		// surfaces only via the inlay hint's troubleshooting tooltip).
	}
	return diags
}

func toLSPSeverity(s status.DiagnosticSeverity) depls.DiagnosticSeverity {
	switch s {
	case status.SevError:
		return depls.DiagSevError
	case status.SevWarning:
		return depls.DiagSevWarning
	default:
		return depls.DiagSevHint
	}
}
