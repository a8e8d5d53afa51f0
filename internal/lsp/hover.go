package lsp

import (
	"fmt"
	"strings"
	"time"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
)

// Hover is the Markdown content for one dependency's hover card.
type Hover struct {
	Markdown string
}

// BuildHover composes a Markdown card for dep from its cached
// VersionInfo, or nil if dep has no cached entry.
func BuildHover(eco depls.Ecosystem, dep depls.Dependency, c *cache.Hybrid) *Hover {
	info, found := c.Volatile.Get(depls.CacheKey(classify.CachePrefix(eco), dep.Name))
	if !found {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", dep.Name)
	if info.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", info.Description)
	}
	fmt.Fprintf(&b, "**Current:** `%s`", dep.Version)
	if age, ok := releaseAge(info, dep.Version); ok {
		fmt.Fprintf(&b, " (%s)", age)
	}
	b.WriteString("  \n")
	if info.LatestStable != "" {
		fmt.Fprintf(&b, "**Latest:** `%s`", info.LatestStable)
		if age, ok := releaseAge(info, info.LatestStable); ok {
			fmt.Fprintf(&b, " (%s)", age)
		}
		b.WriteString("  \n")
	}
	if info.License != "" {
		fmt.Fprintf(&b, "**License:** %s  \n", info.License)
	}
	if info.RepositoryURL != "" {
		fmt.Fprintf(&b, "[Repository](%s)  \n", info.RepositoryURL)
	}
	if info.Homepage != "" {
		fmt.Fprintf(&b, "[Homepage](%s)  \n", info.Homepage)
	}
	if len(info.Vulnerabilities) > 0 {
		b.WriteString("\n**Vulnerabilities:**\n\n")
		for _, v := range info.Vulnerabilities {
			if v.URL != "" {
				fmt.Fprintf(&b, "- [%s](%s): %s (%s)\n", v.ID, v.URL, v.Description, v.Severity)
			} else {
				fmt.Fprintf(&b, "- %s: %s (%s)\n", v.ID, v.Description, v.Severity)
			}
		}
	}
	return &Hover{Markdown: b.String()}
}

// releaseAge renders a human-readable age for version if its release
// date is known. ReleaseDates is only populated where the upstream API
// provides it, so absence is common and simply omits the age.
func releaseAge(info depls.VersionInfo, version string) (string, bool) {
	t, ok := info.ReleaseDates[version]
	if !ok {
		return "", false
	}
	d := time.Since(t)
	switch {
	case d < 24*time.Hour:
		return "released today", true
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24)), true
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%d months ago", int(d.Hours()/24/30)), true
	default:
		return fmt.Sprintf("%d years ago", int(d.Hours()/24/365)), true
	}
}
