package lsp

import (
	"fmt"
	"strings"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/status"
)

// InlayHint is one label placed at the end of a dependency's version
// column.
type InlayHint struct {
	Line    int
	Column  int // version_span.end + 1
	Label   string
	Tooltip string
}

// HintOptions mirrors the inlay_hints initialization options.
type HintOptions struct {
	ShowUpToDate bool
	MinSeverity  depls.Severity
	Ignore       IgnoreList
}

// BuildInlayHints produces one hint per non-ignored dependency in deps,
// consulting c for cached VersionInfo. Up-to-date dependencies are
// omitted when opts.ShowUpToDate is false.
func BuildInlayHints(eco depls.Ecosystem, deps []depls.Dependency, c *cache.Hybrid, opts HintOptions) []InlayHint {
	prefix := classify.CachePrefix(eco)
	var hints []InlayHint
	for _, dep := range deps {
		if opts.Ignore.Matches(dep.Name) {
			continue
		}
		info, found := c.Volatile.Get(depls.CacheKey(prefix, dep.Name))
		state := status.Decide(dep, info, found, opts.MinSeverity)
		if state == status.StateUpToDate && !opts.ShowUpToDate {
			continue
		}
		hints = append(hints, InlayHint{
			Line:    dep.Line,
			Column:  dep.VersionSpan.End + 1,
			Label:   hintLabel(state, dep, info),
			Tooltip: hintTooltip(state, dep, info),
		})
	}
	return hints
}

func hintLabel(s status.State, dep depls.Dependency, info depls.VersionInfo) string {
	switch s {
	case status.StateUpToDate:
		return "✓"
	case status.StateOutdated:
		return fmt.Sprintf("⬆ %s", info.LatestStable)
	case status.StateVulnerable:
		n := len(info.Vulnerabilities)
		noun := "vulnerability"
		if n != 1 {
			noun = "vulnerabilities"
		}
		return fmt.Sprintf("⚠ %d %s", n, noun)
	case status.StateDeprecated:
		return "⚠ Deprecated"
	case status.StateYanked:
		return fmt.Sprintf("🚫 Yanked → %s", info.LatestStable)
	case status.StateLocal:
		return "local"
	default:
		return "?"
	}
}

func hintTooltip(s status.State, dep depls.Dependency, info depls.VersionInfo) string {
	var b strings.Builder
	switch s {
	case status.StateUpToDate:
		fmt.Fprintf(&b, "%s is up to date at %s.", dep.Name, dep.Version)
	case status.StateOutdated:
		ut := status.ClassifyUpdate(dep.Version, info.LatestStable)
		fmt.Fprintf(&b, "%s %s is available (%s update).", dep.Name, info.LatestStable, ut)
	case status.StateVulnerable:
		fmt.Fprintf(&b, "%s %s has known vulnerabilities:\n", dep.Name, dep.Version)
		for i, v := range info.Vulnerabilities {
			if i >= 5 {
				fmt.Fprintf(&b, "…and %d more\n", len(info.Vulnerabilities)-5)
				break
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", v.ID, v.Severity, v.Description)
		}
	case status.StateDeprecated:
		fmt.Fprintf(&b, "%s is deprecated upstream.", dep.Name)
	case status.StateYanked:
		fmt.Fprintf(&b, "%s %s has been yanked. Latest: %s.", dep.Name, dep.Version, info.LatestStable)
	case status.StateLocal:
		fmt.Fprintf(&b, "%s resolves to a local path or VCS reference, not a registry version.", dep.Name)
	default:
		fmt.Fprintf(&b, "No registry information is cached yet for %s. This can mean the registry "+
			"request is still in flight, the package name could not be found, or the last request "+
			"failed; the next edit to this document will retry it.", dep.Name)
	}
	return b.String()
}
