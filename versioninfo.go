package depls

import "time"

// VersionInfo is registry-derived metadata for a package.
//
// Fields are populated in two phases: the registry phase fills everything
// except Vulnerabilities and Deprecated; the vulnerability phase fills
// those two. Invariant: LatestStable, when present, is not a prerelease
// and not yanked.
type VersionInfo struct {
	LatestStable     string // empty means absent
	LatestPrerelease string // empty means absent
	AllVersions      []string
	Description      string
	Homepage         string
	RepositoryURL    string
	License          string
	ReleaseDates     map[string]time.Time
	YankedVersions   map[string]struct{}
	Deprecated       bool
	Vulnerabilities  []Vulnerability
}

// HasLatestStable reports whether the registry phase found a latest
// stable version.
func (v VersionInfo) HasLatestStable() bool { return v.LatestStable != "" }

// IsYanked reports whether the exact pinned version string is recorded as
// yanked. Callers must pass the pinned version as written (matched
// exactly, not normalized), matching the registry's own version strings.
func (v VersionInfo) IsYanked(pinned string) bool {
	if v.YankedVersions == nil {
		return false
	}
	_, ok := v.YankedVersions[pinned]
	return ok
}
