package registry

import (
	"net/http"

	"github.com/depls-dev/depls"
)

// NewSet builds the closed adapter table for all eight supported
// ecosystems, sharing one *http.Client across every adapter so connection
// pooling and idle sockets are reused across registries. The *NPMAdapter
// is also returned directly so callers can Reconfigure it when scoped
// registry settings arrive after initialize.
func NewSet(client *http.Client) (Set, *NPMAdapter) {
	npm := NewNPMAdapter(client)
	return Set{
		depls.EcosystemRust:       NewCratesAdapter(client),
		depls.EcosystemJavaScript: npm,
		depls.EcosystemPython:     NewPyPIAdapter(client),
		depls.EcosystemGo:         NewGoProxyAdapter(client),
		depls.EcosystemPHP:        NewPackagistAdapter(client),
		depls.EcosystemDart:       NewPubDevAdapter(client),
		depls.EcosystemCSharp:     NewNuGetAdapter(client),
		depls.EcosystemRuby:       NewRubyGemsAdapter(client),
	}, npm
}
