package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// CsprojParser extracts dependencies from <PackageReference> elements in
// a .csproj MSBuild project file.
type CsprojParser struct{}

var csprojRefRe = regexp.MustCompile(`<PackageReference\s+[^>]*Include="([^"]+)"[^>]*Version="([^"]*)"`)
var csprojRefRevRe = regexp.MustCompile(`<PackageReference\s+[^>]*Version="([^"]*)"[^>]*Include="([^"]+)"`)

func (CsprojParser) Parse(text string) []depls.Dependency {
	var out []depls.Dependency
	for i, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "PackageReference") {
			continue
		}
		if m := csprojRefRe.FindStringSubmatchIndex(line); m != nil {
			out = append(out, depls.Dependency{
				Name:        line[m[2]:m[3]],
				Version:     line[m[4]:m[5]],
				Line:        i,
				NameSpan:    depls.Span{Start: m[2], End: m[3]},
				VersionSpan: depls.Span{Start: m[4], End: m[5]},
			})
			continue
		}
		if m := csprojRefRevRe.FindStringSubmatchIndex(line); m != nil {
			out = append(out, depls.Dependency{
				Name:        line[m[4]:m[5]],
				Version:     line[m[2]:m[3]],
				Line:        i,
				NameSpan:    depls.Span{Start: m[4], End: m[5]},
				VersionSpan: depls.Span{Start: m[2], End: m[3]},
			})
		}
	}
	return out
}
