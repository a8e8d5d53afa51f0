package depls

// DiagnosticSeverity mirrors the LSP DiagnosticSeverity enum (1-indexed:
// Error, Warning, Information, Hint) so internal/pipeline and
// internal/lspserver can share one wire-shaped type without either
// depending on internal/status's richer State type.
type DiagnosticSeverity int

const (
	DiagSevError       DiagnosticSeverity = 1
	DiagSevWarning     DiagnosticSeverity = 2
	DiagSevInformation DiagnosticSeverity = 3
	DiagSevHint        DiagnosticSeverity = 4
)

// Diagnostic is one dependency-state finding ready to publish over LSP.
// Range is expressed as Line plus the dependency's VersionSpan.
type Diagnostic struct {
	Line     int
	Span     Span
	Severity DiagnosticSeverity
	Source   string // "dependi" or "dependi-security"
	Code     string
	Message  string
}
