package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// PythonParser extracts dependencies from both pyproject.toml's
// PEP 621 `dependencies = [...]` / `[project.optional-dependencies]`
// arrays and requirements*.txt / constraints*.txt line lists. The same
// Parser is registered for both filenames (classify.Ecosystem maps both
// to EcosystemPython); PythonParser auto-detects which shape it is
// looking at from the text itself.
type PythonParser struct{}

var (
	pyArrayEntryRe  = regexp.MustCompile(`"([A-Za-z0-9_.\-]+)\s*(==|>=|<=|~=|!=|>|<)?\s*([^"]*)"`)
	pyOptionalHdrRe = regexp.MustCompile(`^\s*\[project\.optional-dependencies(\.[A-Za-z0-9_\-]+)?\]\s*$`)
	pyProjDepsHdrRe = regexp.MustCompile(`^\s*dependencies\s*=\s*\[`)
	pyReqLineRe     = regexp.MustCompile(`^([A-Za-z0-9_.\-]+)\s*(==|>=|<=|~=|!=|>|<)\s*([A-Za-z0-9_.\-+]+)`)
)

func (PythonParser) Parse(text string) []depls.Dependency {
	if looksLikeTOML(text) {
		return parsePyprojectTOML(text)
	}
	return parseRequirementsTxt(text)
}

func looksLikeTOML(text string) bool {
	return strings.Contains(text, "[project]") || strings.Contains(text, "[tool.") ||
		strings.Contains(text, "dependencies = [") || strings.Contains(text, "[project.optional-dependencies")
}

func parsePyprojectTOML(text string) []depls.Dependency {
	var out []depls.Dependency
	inArray := false
	optional := false

	for i, line := range strings.Split(text, "\n") {
		switch {
		case pyOptionalHdrRe.MatchString(line):
			optional = true
			inArray = false
			continue
		case strings.HasPrefix(strings.TrimSpace(line), "[") && !pyOptionalHdrRe.MatchString(line):
			if !strings.Contains(line, "optional-dependencies") {
				optional = false
			}
		}
		if pyProjDepsHdrRe.MatchString(line) {
			inArray = true
			if strings.Contains(line, "]") {
				inArray = false
			}
		}
		if !inArray {
			continue
		}
		if strings.Contains(line, "]") {
			inArray = false
		}
		if m := pyArrayEntryRe.FindStringSubmatchIndex(line); m != nil {
			name := line[m[2]:m[3]]
			var versionStart, versionEnd int
			version := ""
			if m[6] >= 0 {
				versionStart, versionEnd = m[6], m[7]
				version = line[m[6]:m[7]]
			} else {
				versionStart, versionEnd = m[3], m[3]
			}
			out = append(out, depls.Dependency{
				Name:        name,
				Version:     version,
				Line:        i,
				NameSpan:    depls.Span{Start: m[2], End: m[3]},
				VersionSpan: depls.Span{Start: versionStart, End: versionEnd},
				Optional:    optional,
			})
		}
	}
	return out
}

func parseRequirementsTxt(text string) []depls.Dependency {
	var out []depls.Dependency
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			continue
		}
		if m := pyReqLineRe.FindStringSubmatchIndex(line); m != nil {
			out = append(out, depls.Dependency{
				Name:        line[m[2]:m[3]],
				Version:     line[m[6]:m[7]],
				Line:        i,
				NameSpan:    depls.Span{Start: m[2], End: m[3]},
				VersionSpan: depls.Span{Start: m[6], End: m[7]},
			})
		}
	}
	return out
}
