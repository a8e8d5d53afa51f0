package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// ComposerParser extracts dependencies from composer.json's "require" and
// "require-dev" objects, using the same brace-depth tracking as NPMParser.
type ComposerParser struct{}

var (
	composerSectionRe = regexp.MustCompile(`"(require|require-dev)"\s*:\s*\{`)
	composerEntryRe   = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]*)"`)
)

func (ComposerParser) Parse(text string) []depls.Dependency {
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
		if m := composerSectionRe.FindStringSubmatchIndex(line); m != nil {
			stack = append(stack, frame{depth: depth + 1, section: line[m[2]:m[3]]})
			depth++
			continue
		}

		openers := strings.Count(line, "{")
		closers := strings.Count(line, "}")

		sec := current()
		if sec != "" && openers == 0 {
			if em := composerEntryRe.FindStringSubmatchIndex(line); em != nil {
				name := line[em[2]:em[3]]
				if name == "php" || strings.HasPrefix(name, "ext-") || strings.HasPrefix(name, "lib-") {
					// platform requirements, not registry packages.
				} else {
					out = append(out, depls.Dependency{
						Name:        name,
						Version:     line[em[4]:em[5]],
						Line:        i,
						NameSpan:    depls.Span{Start: em[2], End: em[3]},
						VersionSpan: depls.Span{Start: em[4], End: em[5]},
						Dev:         sec == "require-dev",
					})
				}
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
