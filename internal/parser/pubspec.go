package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// PubspecParser extracts dependencies from a pubspec.yaml's "dependencies"
// and "dev_dependencies" maps. It tracks the current top-level key by
// indentation, since YAML's structure is indentation-defined rather than
// brace-delimited.
type PubspecParser struct{}

var (
	pubspecTopKeyRe = regexp.MustCompile(`^(dependencies|dev_dependencies):\s*$`)
	pubspecEntryRe  = regexp.MustCompile(`^(\s+)([A-Za-z0-9_]+):\s*(?:"?(any|\^?[0-9][^"\s#]*)"?)?\s*$`)
)

func (PubspecParser) Parse(text string) []depls.Dependency {
	var out []depls.Dependency
	section := ""
	sectionIndent := -1

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := pubspecTopKeyRe.FindStringSubmatch(line); m != nil {
			section = m[1]
			sectionIndent = 0
			continue
		}
		if section == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if indent <= sectionIndent {
			section = ""
			continue
		}
		// Only direct children of the section (not transitive map keys
		// like "sdk:"/"path:" under a dependency) are package entries.
		if indent != sectionIndent+2 {
			continue
		}
		if m := pubspecEntryRe.FindStringSubmatchIndex(line); m != nil {
			name := line[m[4]:m[5]]
			var vs, ve int
			version := ""
			if m[6] >= 0 {
				vs, ve = m[6], m[7]
				version = line[m[6]:m[7]]
			} else {
				vs, ve = m[5], m[5]
			}
			out = append(out, depls.Dependency{
				Name:        name,
				Version:     version,
				Line:        i,
				NameSpan:    depls.Span{Start: m[4], End: m[5]},
				VersionSpan: depls.Span{Start: vs, End: ve},
				Dev:         section == "dev_dependencies",
			})
		}
	}
	return out
}
