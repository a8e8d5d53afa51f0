// Package actions builds the "Quick Fix" code actions:
// one per-dependency update action, plus a combined "Update all N
// dependencies" action when two or more are outdated within the
// requested range. Kept separate from the read-only providers in
// internal/lsp so workspace-edit construction doesn't entangle with
// hint/diagnostic/hover rendering.
package actions

import (
	"fmt"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/status"
)

// TextEdit replaces the text at Span on Line with NewText.
type TextEdit struct {
	Line    int
	Span    depls.Span
	NewText string
}

// CodeAction is one offered quick fix: a title, whether it should be
// preferred (surfaced as the default action in most editors), and the
// edits it applies.
type CodeAction struct {
	Title       string
	IsPreferred bool
	Edits       []TextEdit
}

// changeEmoji color-codes an update type: red for a major bump, yellow
// for minor, green for patch,
// blue for a prerelease move.
func changeEmoji(u status.UpdateType) string {
	switch u {
	case status.UpdateTypeMajor:
		return "🔴"
	case status.UpdateTypeMinor:
		return "🟡"
	case status.UpdateTypePatch:
		return "🟢"
	case status.UpdateTypePrerelease:
		return "🔵"
	default:
		return ""
	}
}

// changeLabel renders the parenthesized update-type tag: MAJOR is shouted,
// the rest are lowercase.
func changeLabel(u status.UpdateType) string {
	if u == status.UpdateTypeMajor {
		return "MAJOR"
	}
	return u.String()
}

// replacementVersion is the literal text a Quick Fix writes into
// version_span: Go module versions carry the "v" prefix its go.mod
// grammar requires; every other ecosystem's version string is used
// unchanged.
func replacementVersion(eco depls.Ecosystem, latestStable string) string {
	if eco == depls.EcosystemGo && latestStable != "" && latestStable[0] != 'v' {
		return "v" + latestStable
	}
	return latestStable
}

// Build returns one CodeAction per outdated dependency in deps (in order),
// followed by a single combined "Update all N dependencies" action when two
// or more are outdated.
func Build(eco depls.Ecosystem, deps []depls.Dependency, c *cache.Hybrid) []CodeAction {
	prefix := classify.CachePrefix(eco)
	var actions []CodeAction
	var combined []TextEdit

	for _, dep := range deps {
		info, found := c.Volatile.Get(depls.CacheKey(prefix, dep.Name))
		if status.Decide(dep, info, found, depls.SeverityUnknown) != status.StateOutdated {
			continue
		}

		ut := status.ClassifyUpdate(dep.Version, info.LatestStable)
		newText := replacementVersion(eco, info.LatestStable)
		edit := TextEdit{Line: dep.Line, Span: dep.VersionSpan, NewText: newText}

		emoji := changeEmoji(ut)
		title := fmt.Sprintf("%s Update %s to %s (%s)", emoji, dep.Name, info.LatestStable, changeLabel(ut))
		if emoji == "" {
			title = fmt.Sprintf("Update %s to %s", dep.Name, info.LatestStable)
		}

		actions = append(actions, CodeAction{
			Title:       title,
			IsPreferred: ut.IsPreferred(),
			Edits:       []TextEdit{edit},
		})
		combined = append(combined, edit)
	}

	if len(combined) >= 2 {
		actions = append(actions, CodeAction{
			Title: fmt.Sprintf("Update all %d dependencies", len(combined)),
			Edits: combined,
		})
	}
	return actions
}
