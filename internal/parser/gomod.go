package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// GoParser extracts dependencies from a go.mod file's require
// directives, both the single-line and block forms.
type GoParser struct{}

var (
	goRequireBlockHdrRe = regexp.MustCompile(`^\s*require\s*\(\s*$`)
	goRequireLineRe     = regexp.MustCompile(`^(\s*)require\s+(\S+)\s+(v\S+)`)
	goModuleLineRe      = regexp.MustCompile(`^(\s*)(\S+)\s+(v\S+)`)
)

func (GoParser) Parse(text string) []depls.Dependency {
	var out []depls.Dependency
	inBlock := false

	for i, raw := range strings.Split(text, "\n") {
		line := stripGoComment(raw)
		trimmed := strings.TrimSpace(line)

		if goRequireBlockHdrRe.MatchString(line) {
			inBlock = true
			continue
		}
		if inBlock && trimmed == ")" {
			inBlock = false
			continue
		}

		if inBlock {
			if m := goModuleLineRe.FindStringSubmatchIndex(line); m != nil {
				out = append(out, dep(line, i, m))
			}
			continue
		}
		if m := goRequireLineRe.FindStringSubmatchIndex(line); m != nil {
			out = append(out, depls.Dependency{
				Name:        line[m[4]:m[5]],
				Version:     line[m[6]:m[7]],
				Line:        i,
				NameSpan:    depls.Span{Start: m[4], End: m[5]},
				VersionSpan: depls.Span{Start: m[6], End: m[7]},
			})
		}
	}
	return out
}

func dep(line string, i int, m []int) depls.Dependency {
	return depls.Dependency{
		Name:        line[m[4]:m[5]],
		Version:     line[m[6]:m[7]],
		Line:        i,
		NameSpan:    depls.Span{Start: m[4], End: m[5]},
		VersionSpan: depls.Span{Start: m[6], End: m[7]},
	}
}

// stripGoComment removes a trailing "// ..." comment (e.g. "// indirect")
// without disturbing column offsets before it.
func stripGoComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx] + strings.Repeat(" ", len(line)-idx)
	}
	return line
}
