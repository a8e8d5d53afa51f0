package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// NPMParser extracts dependencies from a package.json manifest.
//
// It tracks brace depth to know which "...Dependencies" object a given
// "name": "version" line belongs to, rather than fully parsing JSON —
// package.json dependency blocks are flat string maps in practice, and
// this keeps the parser's failure mode "return less" instead of "reject
// the whole file" on non-standard formatting.
type NPMParser struct{}

var (
	npmSectionRe = regexp.MustCompile(`"(dependencies|devDependencies|optionalDependencies|peerDependencies)"\s*:\s*\{`)
	npmEntryRe   = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]*)"`)
)

func (NPMParser) Parse(text string) []depls.Dependency {
	var out []depls.Dependency

	type frame struct {
		depth   int
		section string
	}
	var stack []frame
	depth := 0

	current := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].section
	}

	for i, line := range strings.Split(text, "\n") {
		if m := npmSectionRe.FindStringSubmatchIndex(line); m != nil {
			stack = append(stack, frame{depth: depth + 1, section: line[m[2]:m[3]]})
			depth++
			continue
		}

		openers := strings.Count(line, "{")
		closers := strings.Count(line, "}")

		sec := current()
		if sec != "" && openers == 0 {
			if em := npmEntryRe.FindStringSubmatchIndex(line); em != nil {
				out = append(out, depls.Dependency{
					Name:        line[em[2]:em[3]],
					Version:     line[em[4]:em[5]],
					Line:        i,
					NameSpan:    depls.Span{Start: em[2], End: em[3]},
					VersionSpan: depls.Span{Start: em[4], End: em[5]},
					Dev:         sec == "devDependencies",
					Optional:    sec == "optionalDependencies",
				})
			}
		}

		depth += openers
		depth -= closers
		for len(stack) > 0 && depth < stack[len(stack)-1].depth {
			stack = stack[:len(stack)-1]
		}
	}
	return out
}
