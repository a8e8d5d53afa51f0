// Package status implements the version-status decision engine:
// semver normalization, the seven-state precedence
// (Yanked > Deprecated > Vulnerable > Outdated > UpToDate > Local >
// Unknown), and update-type classification. Every LSP feature provider
// consults this package for its single source of truth.
package status

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/depls-dev/depls"
)

// State is the single display state the engine assigns to a dependency.
type State uint8

const (
	StateUnknown State = iota
	StateLocal
	StateUpToDate
	StateOutdated
	StateVulnerable
	StateDeprecated
	StateYanked
)

func (s State) String() string {
	switch s {
	case StateLocal:
		return "local"
	case StateUpToDate:
		return "up-to-date"
	case StateOutdated:
		return "outdated"
	case StateVulnerable:
		return "vulnerable"
	case StateDeprecated:
		return "deprecated"
	case StateYanked:
		return "yanked"
	default:
		return "unknown"
	}
}

// UpdateType classifies how far a pinned version is from latest stable,
// for code-action labels.
type UpdateType uint8

const (
	UpdateTypeNone UpdateType = iota
	UpdateTypePrerelease
	UpdateTypePatch
	UpdateTypeMinor
	UpdateTypeMajor
)

func (u UpdateType) String() string {
	switch u {
	case UpdateTypePrerelease:
		return "prerelease"
	case UpdateTypePatch:
		return "patch"
	case UpdateTypeMinor:
		return "minor"
	case UpdateTypeMajor:
		return "major"
	default:
		return "none"
	}
}

// IsPreferred reports whether a code action for this update type should
// be marked preferred. Major bumps are deliberately excluded: they can
// break callers and should not be the editor's default fix.
func (u UpdateType) IsPreferred() bool {
	return u != UpdateTypeNone && u != UpdateTypeMajor
}

// localPrefixes and localSubstrings implement the Local-state test.
var localPrefixes = []string{
	"./", "../", "/", "file://", "git+", "git@", "http://", "https://",
	"workspace:", "link:", "portal:",
}

var localSubstrings = []string{"github:", "gitlab:", "bitbucket:"}

// IsLocal reports whether a pinned version string names a filesystem
// path, VCS reference, or workspace/link protocol rather than a registry
// version.
func IsLocal(version string) bool {
	for _, p := range localPrefixes {
		if strings.HasPrefix(version, p) {
			return true
		}
	}
	for _, sub := range localSubstrings {
		if strings.Contains(version, sub) {
			return true
		}
	}
	return false
}

// Normalize reduces a pinned or latest version string to a comparable
// *semver.Version: trim; strip a
// leading ^, ~, >=, <=, >, <, =, or v; take the first comma-delimited
// clause; right-pad with .0 to reach three dotted components. Returns
// ok=false if the result still fails to parse as semver, in which case
// callers must fall back to string equality.
func Normalize(raw string) (*semver.Version, bool) {
	s := strings.TrimSpace(raw)
	for _, prefix := range []string{">=", "<=", "^", "~", ">", "<", "=", "v"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	parts := strings.SplitN(s, ".", 3)
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	s = strings.Join(parts, ".")

	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, false
	}
	return v, true
}

// compare returns -1, 0, 1 comparing normalized a against normalized b;
// when either fails to parse as semver, it falls back to string equality
// (returning 0 when equal, -1 otherwise — sufficient for the two
// call sites, which only need "is a strictly less than b").
func compare(a, b string) int {
	va, aok := Normalize(a)
	vb, bok := Normalize(b)
	if aok && bok {
		return va.Compare(vb)
	}
	if strings.TrimSpace(a) == strings.TrimSpace(b) {
		return 0
	}
	return -1
}

// IsOutdated reports whether latestStable's normalized semver is strictly
// greater than pinned's.
func IsOutdated(pinned, latestStable string) bool {
	if latestStable == "" {
		return false
	}
	return compare(pinned, latestStable) < 0
}

// Decide applies the seven-state precedence to one
// dependency and its (possibly absent) cached VersionInfo.
func Decide(dep depls.Dependency, info depls.VersionInfo, found bool, minSeverity depls.Severity) State {
	if found && info.IsYanked(dep.Version) {
		return StateYanked
	}
	if found && info.Deprecated {
		return StateDeprecated
	}
	if found && hasQualifyingVulnerability(info.Vulnerabilities, minSeverity) {
		return StateVulnerable
	}
	if found && info.HasLatestStable() {
		if IsOutdated(dep.Version, info.LatestStable) {
			return StateOutdated
		}
		return StateUpToDate
	}
	if IsLocal(dep.Version) {
		return StateLocal
	}
	return StateUnknown
}

// hasQualifyingVulnerability reports whether vulns contains at least one
// finding at or above minSeverity, after the configurable severity
// filter of the security.min_severity option.
func hasQualifyingVulnerability(vulns []depls.Vulnerability, minSeverity depls.Severity) bool {
	for _, v := range vulns {
		if v.Severity >= minSeverity {
			return true
		}
	}
	return false
}

// ClassifyUpdate compares normalized pinned and latestStable and returns
// the update type for a code-action label.
func ClassifyUpdate(pinned, latestStable string) UpdateType {
	pv, pok := Normalize(pinned)
	lv, lok := Normalize(latestStable)
	if !pok || !lok {
		return UpdateTypeNone
	}
	if pv.Compare(lv) >= 0 {
		return UpdateTypeNone
	}
	switch {
	case lv.Major() != pv.Major():
		return UpdateTypeMajor
	case lv.Minor() != pv.Minor():
		return UpdateTypeMinor
	case lv.Patch() != pv.Patch():
		return UpdateTypePatch
	case lv.Prerelease() != pv.Prerelease():
		return UpdateTypePrerelease
	default:
		return UpdateTypeNone
	}
}

// DiagnosticSeverity is the LSP diagnostic severity assigned
// per dependency state (and, for Vulnerable, the maximum finding severity
// within that dependency's cached VersionInfo).
type DiagnosticSeverity uint8

const (
	SevError DiagnosticSeverity = iota + 1
	SevWarning
	SevHint
)

// DiagnosticSeverityFor maps a decided State (plus, for Vulnerable, the
// maximum finding severity) to an LSP diagnostic severity:
// Critical/High -> Error, Medium -> Warning, Low -> Hint; Outdated
// is always Hint; Yanked/Deprecated are Warning; Local is Hint.
func DiagnosticSeverityFor(s State, maxFindingSeverity depls.Severity) DiagnosticSeverity {
	switch s {
	case StateOutdated, StateLocal:
		return SevHint
	case StateYanked, StateDeprecated:
		return SevWarning
	case StateVulnerable:
		switch {
		case maxFindingSeverity >= depls.SeverityHigh:
			return SevError
		case maxFindingSeverity == depls.SeverityMedium:
			return SevWarning
		default:
			return SevHint
		}
	default:
		return SevHint
	}
}

// MaxSeverity returns the highest Severity among vulns, or SeverityLow if
// vulns is empty (callers only invoke this once State is StateVulnerable,
// so vulns is never empty in practice).
func MaxSeverity(vulns []depls.Vulnerability) depls.Severity {
	max := depls.SeverityLow
	for _, v := range vulns {
		if v.Severity > max {
			max = v.Severity
		}
	}
	return max
}

// DiagnosticCode is the short string tag published per state.
func DiagnosticCode(s State, vulnCount int) string {
	switch s {
	case StateOutdated:
		return "outdated"
	case StateYanked:
		return "yanked-version"
	case StateDeprecated:
		return "deprecated-package"
	case StateVulnerable:
		return strconv.Itoa(vulnCount) + "-vulns"
	case StateLocal:
		return "local"
	default:
		return "unknown"
	}
}
