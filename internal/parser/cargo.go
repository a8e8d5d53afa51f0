package parser

import (
	"regexp"
	"strings"

	"github.com/depls-dev/depls"
)

// CargoParser extracts dependencies from a Cargo.toml manifest.
//
// It tracks the enclosing [dependencies]/[dev-dependencies]/
// [build-dependencies] (and their target-specific and workspace
// variants) table header per line, then matches simple
// `name = "version"` and inline-table `name = { version = "...", ... }`
// entries. It does not parse arbitrary TOML; this is a deliberate
// narrowing matching the other ecosystem parsers' line-scanner style.
type CargoParser struct{}

var (
	cargoHeaderRe    = regexp.MustCompile(`^\s*\[(.+)\]\s*$`)
	cargoPlainRe     = regexp.MustCompile(`^(\s*)([A-Za-z0-9_.\-]+)(\s*=\s*)"([^"]*)"`)
	cargoTableRe     = regexp.MustCompile(`^(\s*)([A-Za-z0-9_.\-]+)(\s*=\s*)\{(.*)\}\s*$`)
	cargoVersionKV   = regexp.MustCompile(`version\s*=\s*"([^"]*)"`)
	cargoRegistryKV  = regexp.MustCompile(`registry\s*=\s*"([^"]*)"`)
	cargoOptionalKV  = regexp.MustCompile(`optional\s*=\s*(true|false)`)
	cargoPathOrGitKV = regexp.MustCompile(`\b(path|git|workspace)\s*=`)
)

func (CargoParser) Parse(text string) []depls.Dependency {
	var out []depls.Dependency
	section := ""
	for i, line := range strings.Split(text, "\n") {
		if m := cargoHeaderRe.FindStringSubmatch(line); m != nil {
			section = strings.TrimSpace(m[1])
			continue
		}
		if !isDependencySection(section) {
			continue
		}
		dev := strings.Contains(section, "dev-dependencies")

		if m := cargoTableRe.FindStringSubmatchIndex(line); m != nil {
			name := line[m[4]:m[5]]
			body := line[m[8]:m[9]]
			vm := cargoVersionKV.FindStringSubmatchIndex(body)
			if vm == nil {
				// path/git-only dependency with no version key; still
				// recorded, with an empty Version and VersionSpan. The
				// status engine does not classify an empty version Local.
				out = append(out, depls.Dependency{
					Name: name, Line: i,
					NameSpan: depls.Span{Start: m[4], End: m[5]},
					Dev:      dev,
				})
				continue
			}
			versionStart := m[8] + vm[2]
			versionEnd := m[8] + vm[3]
			d := depls.Dependency{
				Name:        name,
				Version:     body[vm[2]:vm[3]],
				Line:        i,
				NameSpan:    depls.Span{Start: m[4], End: m[5]},
				VersionSpan: depls.Span{Start: versionStart, End: versionEnd},
				Dev:         dev,
			}
			if om := cargoOptionalKV.FindStringSubmatch(body); om != nil {
				d.Optional = om[1] == "true"
			}
			if rm := cargoRegistryKV.FindStringSubmatch(body); rm != nil {
				d.Registry = rm[1]
			}
			if cargoPathOrGitKV.MatchString(body) && d.Version == "" {
				// leave Version empty; status.IsLocal does not match an empty version
			}
			out = append(out, d)
			continue
		}

		if m := cargoPlainRe.FindStringSubmatchIndex(line); m != nil {
			name := line[m[4]:m[5]]
			out = append(out, depls.Dependency{
				Name:        name,
				Version:     line[m[8]:m[9]],
				Line:        i,
				NameSpan:    depls.Span{Start: m[4], End: m[5]},
				VersionSpan: depls.Span{Start: m[8], End: m[9]},
				Dev:         dev,
			})
		}
	}
	return out
}

func isDependencySection(section string) bool {
	if section == "" {
		return false
	}
	s := section
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		s = s[idx+1:]
	}
	switch s {
	case "dependencies", "dev-dependencies", "build-dependencies":
		return true
	default:
		return false
	}
}
