// Package parser turns manifest text into a list of [depls.Dependency]
// records. Each ecosystem's grammar is a pure function of text; none does
// full-grammar parsing, only span-accurate scanning, per the pluggable
// adapter contract at the LSP core's boundary.
package parser

import "github.com/depls-dev/depls"

// Parser recovers dependency references from manifest text.
//
// Implementations must never panic on malformed input; they return an
// empty slice instead. Every returned Dependency's spans must satisfy
// Line < line count, 0 <= Start <= End <= len(that line).
type Parser interface {
	Parse(text string) []depls.Dependency
}

// Registry is the closed, ecosystem-keyed table of parsers built once at
// startup and shared read-only thereafter.
type Registry map[depls.Ecosystem]Parser

// NewRegistry builds the registry with all eight built-in parsers wired
// in.
func NewRegistry() Registry {
	return Registry{
		depls.EcosystemRust:       CargoParser{},
		depls.EcosystemJavaScript: NPMParser{},
		depls.EcosystemPython:     PythonParser{},
		depls.EcosystemGo:         GoParser{},
		depls.EcosystemPHP:        ComposerParser{},
		depls.EcosystemDart:       PubspecParser{},
		depls.EcosystemCSharp:     CsprojParser{},
		depls.EcosystemRuby:       GemfileParser{},
	}
}

// For looks up the parser for e, returning nil, false if unknown.
func (r Registry) For(e depls.Ecosystem) (Parser, bool) {
	p, ok := r[e]
	return p, ok
}
