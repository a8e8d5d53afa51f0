// Package lspserver is the thin JSON-RPC dispatch shim between an LSP
// client on stdio and the backend orchestrator. It owns no dependency
// intelligence of its own: every request is decoded, handed to
// internal/backend, and the result re-encoded onto the wire.
package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/quay/zlog"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/backend"
)

// Server handles one client connection. It implements pipeline.Notifier
// so diagnostic publishes and hint-refresh requests from the pipeline
// reach the editor.
type Server struct {
	conn *jsonrpc2.Conn

	mu       sync.Mutex
	backend  *backend.Backend
	texts    map[string]string // uri -> latest full text, for didSave without includeText
	shutdown bool
}

// Serve runs the LSP session over rwc until the client disconnects. It
// returns once the connection is closed.
func Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	s := &Server{texts: make(map[string]string)}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	s.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(s.handle)))
	<-s.conn.DisconnectNotify()
	if s.backend != nil {
		s.backend.Close()
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "initialize":
		return s.initialize(ctx, req)
	case "initialized":
		return nil, nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return nil, nil
	case "exit":
		conn.Close()
		return nil, nil
	}

	b, down := s.state()
	if down && !req.Notif {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "server is shutting down"}
	}
	if b == nil {
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "server not initialized"}
	}

	switch req.Method {
	case "textDocument/didOpen":
		var p lsp.DidOpenTextDocumentParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		uri := string(p.TextDocument.URI)
		s.setText(uri, p.TextDocument.Text)
		b.DidOpen(ctx, uri, p.TextDocument.Text)
		return nil, nil

	case "textDocument/didChange":
		var p lsp.DidChangeTextDocumentParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		if len(p.ContentChanges) == 0 {
			return nil, nil
		}
		// Full-document sync only: the last change event carries the
		// whole text.
		uri := string(p.TextDocument.URI)
		text := p.ContentChanges[len(p.ContentChanges)-1].Text
		s.setText(uri, text)
		b.DidChange(uri, text)
		return nil, nil

	case "textDocument/didSave":
		var p didSaveParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		uri := string(p.TextDocument.URI)
		text, ok := s.saveText(uri, p.Text)
		if !ok {
			return nil, nil
		}
		b.DidSave(uri, text)
		return nil, nil

	case "textDocument/didClose":
		var p lsp.DidCloseTextDocumentParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		uri := string(p.TextDocument.URI)
		s.dropText(uri)
		b.DidClose(uri)
		s.PublishDiagnostics(uri, nil)
		return nil, nil

	case "textDocument/inlayHint":
		var p inlayHintParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		return toInlayHints(b.InlayHints(string(p.TextDocument.URI))), nil

	case "textDocument/hover":
		var p lsp.TextDocumentPositionParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		uri := string(p.TextDocument.URI)
		state, ok := b.Docs.Get(uri)
		if !ok {
			return nil, nil
		}
		dep, ok := dependencyAt(state.Dependencies, p.Position)
		if !ok {
			return nil, nil
		}
		h := b.Hover(uri, dep)
		if h == nil {
			return nil, nil
		}
		rng := spanRange(dep.Line, dep.NameSpan)
		return lsp.Hover{
			Contents: []lsp.MarkedString{lsp.RawMarkedString(h.Markdown)},
			Range:    &rng,
		}, nil

	case "textDocument/completion":
		var p lsp.TextDocumentPositionParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		uri := string(p.TextDocument.URI)
		state, ok := b.Docs.Get(uri)
		if !ok {
			return nil, nil
		}
		dep, ok := dependencyAt(state.Dependencies, p.Position)
		if !ok {
			return nil, nil
		}
		items := b.Completions(uri, dep, p.Position.Character)
		return toCompletionList(dep, items), nil

	case "textDocument/codeAction":
		var p codeActionParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		uri := string(p.TextDocument.URI)
		acts := b.CodeActions(uri, p.Range.Start.Line, p.Range.End.Line)
		return toCodeActions(uri, acts), nil

	case "workspace/executeCommand":
		var p executeCommandParams
		if err := unmarshal(req, &p); err != nil {
			return nil, err
		}
		return s.executeCommand(ctx, b, p)
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
}

func (s *Server) initialize(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	var p initializeParams
	if err := unmarshal(req, &p); err != nil {
		return nil, err
	}

	cfg := backend.DefaultConfig()
	if len(p.InitializationOptions) > 0 {
		// A decode failure falls back to full defaults rather than
		// refusing to start.
		if err := json.Unmarshal(p.InitializationOptions, &cfg); err != nil {
			zlog.Warn(ctx).Err(err).Msg("bad initializationOptions, using defaults")
			cfg = backend.DefaultConfig()
		}
	}

	b, err := backend.New(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.backend = b
	s.mu.Unlock()

	return initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync:   lsp.TDSKFull,
			InlayHintProvider:  true,
			HoverProvider:      true,
			CodeActionProvider: true,
			CompletionProvider: completionOptions{TriggerCharacters: []string{`"`, "="}},
			ExecuteCommandProvider: executeCommandOptions{
				Commands: []string{"dependi/generateReport"},
			},
		},
	}, nil
}

func (s *Server) executeCommand(ctx context.Context, b *backend.Backend, p executeCommandParams) (any, error) {
	if p.Command != "dependi/generateReport" {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("unknown command: %s", p.Command)}
	}
	var args generateReportArgs
	if len(p.Arguments) > 0 {
		if err := json.Unmarshal(p.Arguments[0], &args); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}
	uri := args.URI
	if uri == "" {
		first, ok := b.FirstDocument()
		if !ok {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "no open documents to report on"}
		}
		uri = first
	}
	rep, ok := b.GenerateReport(ctx, uri)
	if !ok {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("not an open document: %s", uri)}
	}

	switch args.Format {
	case "markdown":
		return generateReportResult{Format: "markdown", Markdown: rep.Markdown()}, nil
	case "", "json":
		raw, err := rep.JSON()
		if err != nil {
			return nil, err
		}
		return generateReportResult{Format: "json", Report: raw}, nil
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("unknown format: %s", args.Format)}
	}
}

// PublishDiagnostics implements pipeline.Notifier.
func (s *Server) PublishDiagnostics(uri string, diags []depls.Diagnostic) {
	params := lsp.PublishDiagnosticsParams{
		URI:         lsp.DocumentURI(uri),
		Diagnostics: toLSPDiagnostics(diags),
	}
	if params.Diagnostics == nil {
		params.Diagnostics = []lsp.Diagnostic{}
	}
	if err := s.conn.Notify(context.Background(), "textDocument/publishDiagnostics", params); err != nil {
		zlog.Debug(context.Background()).Err(err).Msg("publishDiagnostics notify failed")
	}
}

// RefreshInlayHints implements pipeline.Notifier. The refresh methods are
// client-bound requests with empty results; they are fired without
// waiting so a slow client never stalls the pipeline.
func (s *Server) RefreshInlayHints() { s.refresh("workspace/inlayHint/refresh") }

// RefreshDiagnostics implements pipeline.Notifier.
func (s *Server) RefreshDiagnostics() { s.refresh("workspace/diagnostic/refresh") }

func (s *Server) refresh(method string) {
	go func() {
		var result any
		if err := s.conn.Call(context.Background(), method, nil, &result); err != nil {
			zlog.Debug(context.Background()).Str("method", method).Err(err).Msg("client refresh failed")
		}
	}()
}

func (s *Server) state() (*backend.Backend, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend, s.shutdown
}

func (s *Server) setText(uri, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[uri] = text
}

// saveText resolves the text a didSave should process: the notification's
// own text when the client sends includeText, otherwise the last text
// observed for uri.
func (s *Server) saveText(uri string, sent *string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sent != nil {
		s.texts[uri] = *sent
		return *sent, true
	}
	t, ok := s.texts[uri]
	return t, ok
}

func (s *Server) dropText(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.texts, uri)
}

func unmarshal(req *jsonrpc2.Request, out any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, out); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}
