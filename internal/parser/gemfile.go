package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// GemfileParser extracts dependencies from `gem "name", "version"` lines,
// including the optional trailing options hash (group:, require:).
type GemfileParser struct{}

var (
	gemLineRe    = regexp.MustCompile(`^\s*gem\s+["']([A-Za-z0-9_.\-]+)["'](?:\s*,\s*["']([^"']*)["'])?`)
	gemGroupKVRe = regexp.MustCompile(`group:\s*(?:\[?\s*)?["':]?([A-Za-z0-9_]+)`)
)

func (GemfileParser) Parse(text string) []depls.Dependency {
	var out []depls.Dependency
	groupStack := []string{}

	groupHdrRe := regexp.MustCompile(`^\s*group\s+(.+)\s+do\s*$`)
	endRe := regexp.MustCompile(`^\s*end\s*$`)

	for i, line := range strings.Split(text, "\n") {
		if m := groupHdrRe.FindStringSubmatch(line); m != nil {
			groupStack = append(groupStack, m[1])
			continue
		}
		if endRe.MatchString(line) && len(groupStack) > 0 {
			groupStack = groupStack[:len(groupStack)-1]
			continue
		}

		m := gemLineRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		dev := false
		for _, g := range groupStack {
			if strings.Contains(g, "development") || strings.Contains(g, "test") {
				dev = true
			}
		}
		if gm := gemGroupKVRe.FindStringSubmatch(line); gm != nil {
			if strings.Contains(gm[1], "development") || strings.Contains(gm[1], "test") {
				dev = true
			}
		}

		name := line[m[2]:m[3]]
		var vs, ve int
		version := ""
		if m[4] >= 0 {
			vs, ve = m[4], m[5]
			version = line[m[4]:m[5]]
		} else {
			vs, ve = m[3], m[3]
		}
		out = append(out, depls.Dependency{
			Name:        name,
			Version:     version,
			Line:        i,
			NameSpan:    depls.Span{Start: m[2], End: m[3]},
			VersionSpan: depls.Span{Start: vs, End: ve},
			Dev:         dev,
		})
	}
	return out
}
