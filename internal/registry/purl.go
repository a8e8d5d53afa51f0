package registry

import (
	"github.com/package-url/packageurl-go"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/classify"
)

// purlType maps an ecosystem to the package-url type string its registry
// uses, per https://github.com/package-url/purl-spec.
func purlType(e depls.Ecosystem) string {
	switch e {
	case depls.EcosystemRust:
		return "cargo"
	case depls.EcosystemJavaScript:
		return "npm"
	case depls.EcosystemPython:
		return "pypi"
	case depls.EcosystemGo:
		return "golang"
	case depls.EcosystemPHP:
		return "composer"
	case depls.EcosystemDart:
		return "pub"
	case depls.EcosystemCSharp:
		return "nuget"
	case depls.EcosystemRuby:
		return "gem"
	default:
		return classify.CachePrefix(e)
	}
}

// PackageURL builds the package-url identity for one dependency, for use in
// vulnerability-scan reports.
func PackageURL(e depls.Ecosystem, dep depls.Dependency) packageurl.PackageURL {
	return packageurl.PackageURL{
		Type:    purlType(e),
		Name:    dep.Name,
		Version: dep.Version,
	}
}
