package registry

import "github.com/Masterminds/semver"

// semverLess reports whether a < b, used by adapters to find the highest
// eligible version in a version list. Falls back to a lexical compare
// when either string fails to parse — adapters call this only to rank
// already-filtered candidates, so a lexical fallback is an acceptable
// approximation; the authoritative comparison for display
// and diagnostics lives in internal/status.
func semverLess(a, b string) bool {
	va, erra := semver.NewVersion(a)
	vb, errb := semver.NewVersion(b)
	if erra != nil || errb != nil {
		return a < b
	}
	return va.LessThan(vb)
}
