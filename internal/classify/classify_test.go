package classify

import (
	"testing"

	"github.com/depls-dev/depls"
)

type classifyTestcase struct {
	Name string
	URI  string
	Want depls.Ecosystem
}

var classifytt = []classifyTestcase{
	{"Cargo", "file:///repo/Cargo.toml", depls.EcosystemRust},
	{"CargoNested", "file:///repo/sub/Cargo.toml", depls.EcosystemRust},
	{"NPM", "file:///repo/package.json", depls.EcosystemJavaScript},
	{"Pyproject", "file:///repo/pyproject.toml", depls.EcosystemPython},
	{"Requirements", "file:///repo/requirements.txt", depls.EcosystemPython},
	{"RequirementsDev", "file:///repo/requirements-dev.txt", depls.EcosystemPython},
	{"Constraints", "file:///repo/constraints.txt", depls.EcosystemPython},
	{"RequirementsDirNotFile", "file:///repo/requirements/foo.txt", depls.EcosystemUnknown},
	{"PlainTxt", "file:///repo/notes.txt", depls.EcosystemUnknown},
	{"GoMod", "file:///repo/go.mod", depls.EcosystemGo},
	{"Composer", "file:///repo/composer.json", depls.EcosystemPHP},
	{"Pubspec", "file:///repo/pubspec.yaml", depls.EcosystemDart},
	{"Csproj", "file:///repo/MyApp.csproj", depls.EcosystemCSharp},
	{"Gemfile", "file:///repo/Gemfile", depls.EcosystemRuby},
	{"Unrelated", "file:///repo/README.md", depls.EcosystemUnknown},
}

func TestEcosystem(t *testing.T) {
	for _, tc := range classifytt {
		t.Run(tc.Name, func(t *testing.T) {
			got, ok := Ecosystem(tc.URI)
			wantOK := tc.Want != depls.EcosystemUnknown
			if ok != wantOK {
				t.Fatalf("Ecosystem(%q) ok = %v, want %v", tc.URI, ok, wantOK)
			}
			if got != tc.Want {
				t.Errorf("Ecosystem(%q) = %v, want %v", tc.URI, got, tc.Want)
			}
		})
	}
}

func TestCachePrefixTotal(t *testing.T) {
	for e := depls.EcosystemRust; e <= depls.EcosystemRuby; e++ {
		if CachePrefix(e) == "unknown" {
			t.Errorf("CachePrefix(%v) unmapped", e)
		}
		if VulnEcosystemName(e) == "" {
			t.Errorf("VulnEcosystemName(%v) unmapped", e)
		}
	}
}
