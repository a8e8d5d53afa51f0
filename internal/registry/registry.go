// Package registry adapts each ecosystem's package registry to one
// uniform contract: a package name in, a [depls.VersionInfo] out, over a
// single shared *http.Client.
package registry

import (
	"context"

	"github.com/depls-dev/depls"
)

// Adapter fetches registry-derived metadata for one package.
//
// Implementations must populate every VersionInfo field except
// Vulnerabilities and Deprecated — those belong to the vulnerability
// phase (internal/vuln). On any non-2xx response or transport failure,
// Adapter returns a *depls.Error wrapping depls.ErrMiss or
// depls.ErrTransport; callers treat either as a cache miss, never a
// crash.
type Adapter interface {
	GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error)
}

// Set is the closed, ecosystem-keyed adapter table built once at startup
// and shared read-only thereafter, mirroring parser.Registry.
type Set map[depls.Ecosystem]Adapter

// For looks up the adapter for e, returning nil, false if unknown.
func (s Set) For(e depls.Ecosystem) (Adapter, bool) {
	a, ok := s[e]
	return a, ok
}
