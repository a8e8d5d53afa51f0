package lsp

import (
	"sort"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/cache"
	"github.com/depls-dev/depls/internal/classify"
	"github.com/depls-dev/depls/internal/status"
)

// maxCompletionItems caps how many versions the completion provider
// offers.
const maxCompletionItems = 10

// CompletionItem is one offered replacement version.
type CompletionItem struct {
	Label    string // the version string
	SortText string // stable sort key, newest-first
}

// BuildCompletions offers up to the top ten versions from dep's cached
// AllVersions, sorted newest-first, when pos falls within dep's
// VersionSpan. Returns nil if pos is outside the span or nothing is
// cached.
func BuildCompletions(eco depls.Ecosystem, dep depls.Dependency, pos int, c *cache.Hybrid) []CompletionItem {
	if pos < dep.VersionSpan.Start || pos > dep.VersionSpan.End {
		return nil
	}
	info, found := c.Volatile.Get(depls.CacheKey(classify.CachePrefix(eco), dep.Name))
	if !found || len(info.AllVersions) == 0 {
		return nil
	}

	versions := append([]string(nil), info.AllVersions...)
	// AllVersions is documented as already ordered newest-first; re-sort
	// defensively so a registry adapter's ordering bug cannot leak into
	// completion item order.
	sort.SliceStable(versions, func(i, j int) bool { return !versionLess(versions[i], versions[j]) })

	n := maxCompletionItems
	if len(versions) < n {
		n = len(versions)
	}
	items := make([]CompletionItem, n)
	for i, v := range versions[:n] {
		items[i] = CompletionItem{Label: v, SortText: sortKey(i)}
	}
	return items
}

// versionLess reports whether a sorts before b using the same normalized
// semver comparison the status engine uses, falling back to string
// comparison on parse failure.
func versionLess(a, b string) bool {
	va, aok := status.Normalize(a)
	vb, bok := status.Normalize(b)
	if aok && bok {
		return va.Compare(vb) < 0
	}
	return a < b
}

func sortKey(rank int) string {
	// Ranks 0-9 get one digit, so lexical sort matches numeric rank
	// while maxCompletionItems is at most 10. Ranks 10-99 get two
	// digits without padding.
	const digits = "0123456789"
	if rank < 10 {
		return string(digits[rank])
	}
	return string(digits[rank/10]) + string(digits[rank%10])
}
