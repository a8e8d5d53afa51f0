package lspserver

import (
	"encoding/json"

	"github.com/sourcegraph/go-lsp"

	"github.com/depls-dev/depls"
	intlsp "github.com/depls-dev/depls/internal/lsp"
	"github.com/depls-dev/depls/internal/lsp/actions"
)

// The sourcegraph/go-lsp types predate LSP 3.17, so the handful of
// shapes this server needs beyond them (inlay hints, code actions with
// attached workspace edits, the didSave text field) are declared here
// with the wire-exact field names. Everything else reuses the library's
// types directly.

type initializeParams struct {
	ProcessID             *int            `json:"processId"`
	RootURI               lsp.DocumentURI `json:"rootUri,omitempty"`
	InitializationOptions json.RawMessage `json:"initializationOptions,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
}

type serverCapabilities struct {
	TextDocumentSync       lsp.TextDocumentSyncKind `json:"textDocumentSync"`
	InlayHintProvider      bool                     `json:"inlayHintProvider"`
	HoverProvider          bool                     `json:"hoverProvider"`
	CodeActionProvider     bool                     `json:"codeActionProvider"`
	CompletionProvider     completionOptions        `json:"completionProvider"`
	ExecuteCommandProvider executeCommandOptions    `json:"executeCommandProvider"`
}

type completionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters"`
}

type executeCommandOptions struct {
	Commands []string `json:"commands"`
}

type didSaveParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Text         *string                    `json:"text,omitempty"`
}

type inlayHintParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Range        lsp.Range                  `json:"range"`
}

type inlayHint struct {
	Position    lsp.Position `json:"position"`
	Label       string       `json:"label"`
	Tooltip     string       `json:"tooltip,omitempty"`
	PaddingLeft bool         `json:"paddingLeft"`
}

type codeActionParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Range        lsp.Range                  `json:"range"`
}

type codeAction struct {
	Title       string            `json:"title"`
	Kind        string            `json:"kind"`
	IsPreferred bool              `json:"isPreferred,omitempty"`
	Edit        lsp.WorkspaceEdit `json:"edit"`
}

type executeCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

type generateReportArgs struct {
	Format string `json:"format,omitempty"`
	URI    string `json:"uri,omitempty"`
}

type generateReportResult struct {
	Format   string          `json:"format"`
	Report   json.RawMessage `json:"report,omitempty"`
	Markdown string          `json:"markdown,omitempty"`
}

// spanRange maps a dependency-line span to an LSP range.
func spanRange(line int, span depls.Span) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: line, Character: span.Start},
		End:   lsp.Position{Line: line, Character: span.End},
	}
}

func toLSPDiagnostics(in []depls.Diagnostic) []lsp.Diagnostic {
	out := make([]lsp.Diagnostic, len(in))
	for i, d := range in {
		out[i] = lsp.Diagnostic{
			Range:    spanRange(d.Line, d.Span),
			Severity: lsp.DiagnosticSeverity(d.Severity),
			Code:     d.Code,
			Source:   d.Source,
			Message:  d.Message,
		}
	}
	return out
}

func toInlayHints(in []intlsp.InlayHint) []inlayHint {
	out := make([]inlayHint, len(in))
	for i, h := range in {
		out[i] = inlayHint{
			Position:    lsp.Position{Line: h.Line, Character: h.Column},
			Label:       h.Label,
			Tooltip:     h.Tooltip,
			PaddingLeft: true,
		}
	}
	return out
}

func toCodeActions(uri string, in []actions.CodeAction) []codeAction {
	out := make([]codeAction, len(in))
	for i, a := range in {
		edits := make([]lsp.TextEdit, len(a.Edits))
		for j, e := range a.Edits {
			edits[j] = lsp.TextEdit{Range: spanRange(e.Line, e.Span), NewText: e.NewText}
		}
		out[i] = codeAction{
			Title:       a.Title,
			Kind:        "quickfix",
			IsPreferred: a.IsPreferred,
			Edit:        lsp.WorkspaceEdit{Changes: map[string][]lsp.TextEdit{uri: edits}},
		}
	}
	return out
}

func toCompletionList(dep depls.Dependency, in []intlsp.CompletionItem) lsp.CompletionList {
	items := make([]lsp.CompletionItem, len(in))
	for i, c := range in {
		items[i] = lsp.CompletionItem{
			Label:    c.Label,
			Kind:     lsp.CIKValue,
			SortText: c.SortText,
			TextEdit: &lsp.TextEdit{Range: spanRange(dep.Line, dep.VersionSpan), NewText: c.Label},
		}
	}
	return lsp.CompletionList{IsIncomplete: false, Items: items}
}

// dependencyAt locates the dependency under pos: a version-span hit wins,
// then a name-span hit, then any dependency on the same line.
func dependencyAt(deps []depls.Dependency, pos lsp.Position) (depls.Dependency, bool) {
	var lineHit depls.Dependency
	var haveLine bool
	for _, dep := range deps {
		if dep.Line != pos.Line {
			continue
		}
		if pos.Character >= dep.VersionSpan.Start && pos.Character <= dep.VersionSpan.End {
			return dep, true
		}
		if pos.Character >= dep.NameSpan.Start && pos.Character <= dep.NameSpan.End {
			return dep, true
		}
		if !haveLine {
			lineHit, haveLine = dep, true
		}
	}
	return lineHit, haveLine
}
