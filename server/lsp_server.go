package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/lexcodex/reformat/framework"
)

// CommandFormat is the executeCommand id that formats a document and pushes
// the result through workspace/applyEdit.
const CommandFormat = "reformat.format"

// Formatter is the part of the dispatcher the server needs.
type Formatter interface {
	Dispatch(ctx context.Context, req framework.FormatRequest) framework.FormatOutcome
}

// LSPServer exposes the dispatcher to editors over the language server protocol.
type LSPServer struct {
	Formatter Formatter
	Version   string

	mu            sync.RWMutex
	openDocuments map[protocol.DocumentURI]*Document
	logger        *log.Logger
	exited        chan struct{}
	exitOnce      sync.Once
	pending       sync.WaitGroup
}

// Document tracks open files from the editor.
type Document struct {
	URI        protocol.DocumentURI
	LanguageID string
	Version    int32
	Text       string
}

// NewLSPServer builds a server instance.
func NewLSPServer(formatter Formatter, logger *log.Logger) *LSPServer {
	if logger == nil {
		logger = log.Default()
	}
	return &LSPServer{
		Formatter:     formatter,
		openDocuments: make(map[protocol.DocumentURI]*Document),
		logger:        logger,
		exited:        make(chan struct{}),
	}
}

// Serve runs the JSON-RPC loop on rwc until the client sends exit, the stream
// closes, or ctx is done.
func (s *LSPServer) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	defer conn.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	case <-s.exited:
		s.pending.Wait()
		return nil
	}
}

func (s *LSPServer) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return s.Initialize(), nil
	case protocol.MethodInitialized:
		return nil, nil
	case protocol.MethodShutdown:
		return nil, nil
	case protocol.MethodExit:
		s.exitOnce.Do(func() { close(s.exited) })
		return nil, nil
	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.TextDocumentDidOpen(params.TextDocument.URI, string(params.TextDocument.LanguageID), params.TextDocument.Version, params.TextDocument.Text)
		return nil, nil
	case protocol.MethodTextDocumentDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		if n := len(params.ContentChanges); n > 0 {
			return nil, s.TextDocumentDidChange(params.TextDocument.URI, params.TextDocument.Version, params.ContentChanges[n-1].Text)
		}
		return nil, nil
	case protocol.MethodTextDocumentDidSave:
		var params protocol.DidSaveTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		if params.Text != "" {
			s.updateText(params.TextDocument.URI, params.Text)
		}
		return nil, nil
	case protocol.MethodTextDocumentDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.TextDocumentDidClose(params.TextDocument.URI)
		return nil, nil
	case protocol.MethodTextDocumentFormatting:
		var params protocol.DocumentFormattingParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.Format(ctx, conn, params.TextDocument.URI, nil)
	case protocol.MethodTextDocumentRangeFormatting:
		var params protocol.DocumentRangeFormattingParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.Format(ctx, conn, params.TextDocument.URI, []protocol.Range{params.Range})
	case protocol.MethodWorkspaceExecuteCommand:
		var params protocol.ExecuteCommandParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return nil, s.ExecuteCommand(ctx, conn, params)
	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method %s not handled", req.Method)}
	}
}

// Initialize advertises formatting support.
func (s *LSPServer) Initialize() *protocol.InitializeResult {
	version := s.Version
	if version == "" {
		version = "dev"
	}
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			DocumentFormattingProvider:      true,
			DocumentRangeFormattingProvider: true,
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{CommandFormat},
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: "reformat", Version: version},
	}
}

// TextDocumentDidOpen stores document state.
func (s *LSPServer) TextDocumentDidOpen(u protocol.DocumentURI, languageID string, version int32, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openDocuments[u] = &Document{
		URI:        u,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
	}
}

// TextDocumentDidChange replaces the document text.
func (s *LSPServer) TextDocumentDidChange(u protocol.DocumentURI, version int32, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.openDocuments[u]
	if !ok {
		return fmt.Errorf("document %s not tracked", u)
	}
	doc.Text = text
	doc.Version = version
	return nil
}

// TextDocumentDidClose forgets the document.
func (s *LSPServer) TextDocumentDidClose(u protocol.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.openDocuments, u)
}

func (s *LSPServer) updateText(u protocol.DocumentURI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.openDocuments[u]; ok {
		doc.Text = text
	}
}

func (s *LSPServer) document(u protocol.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.openDocuments[u]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// Format dispatches the document, or each of ranges within it, and turns the
// outcomes into text edits against the current text. Skipped and failed
// regions produce no edits.
func (s *LSPServer) Format(ctx context.Context, conn *jsonrpc2.Conn, u protocol.DocumentURI, ranges []protocol.Range) ([]protocol.TextEdit, error) {
	edits := []protocol.TextEdit{}
	path, hasPath := uriToPath(u)
	doc, ok := s.document(u)
	if !ok {
		if !hasPath {
			return edits, fmt.Errorf("document %s not tracked", u)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return edits, err
		}
		doc = Document{URI: u, Text: string(data)}
	}

	req := framework.FormatRequest{
		Content: doc.Text,
		Syntax:  syntaxFor(doc.LanguageID, path),
	}
	if hasPath {
		req.FilePath = path
	}
	sels := make([]framework.Region, 0, len(ranges))
	for _, rng := range ranges {
		start, err := offsetForPosition(doc.Text, rng.Start)
		if err != nil {
			return edits, err
		}
		end, err := offsetForPosition(doc.Text, rng.End)
		if err != nil {
			return edits, err
		}
		sels = append(sels, framework.Region{Start: start, End: end})
	}

	res := framework.FormatSelections(ctx, s.Formatter, req, sels)
	if failed, ok := res.Failed(); ok {
		s.showMessage(ctx, conn, protocol.MessageTypeError, fmt.Sprintf("reformat: %s", failed.Reason))
	}
	if res.Reload {
		data, err := os.ReadFile(path)
		if err != nil {
			return edits, fmt.Errorf("reload %s: %w", path, err)
		}
		if string(data) == doc.Text {
			return edits, nil
		}
		r, err := rangeForOffsets(doc.Text, 0, len(doc.Text))
		if err != nil {
			return edits, err
		}
		s.updateText(u, string(data))
		return append(edits, protocol.TextEdit{Range: r, NewText: string(data)}), nil
	}
	for _, outcome := range res.Outcomes {
		if !outcome.Changed() || doc.Text[outcome.Region.Start:outcome.Region.End] == outcome.Text {
			continue
		}
		r, err := rangeForOffsets(doc.Text, outcome.Region.Start, outcome.Region.End)
		if err != nil {
			return edits, err
		}
		edits = append(edits, protocol.TextEdit{Range: r, NewText: outcome.Text})
	}
	return edits, nil
}

// ExecuteCommand handles reformat.format by computing edits and sending them
// to the client as a workspace edit. The first argument is the document URI,
// an optional second argument lists the ranges to format.
func (s *LSPServer) ExecuteCommand(ctx context.Context, conn *jsonrpc2.Conn, params protocol.ExecuteCommandParams) error {
	if params.Command != CommandFormat {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("unknown command %s", params.Command)}
	}
	if len(params.Arguments) == 0 {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "document uri argument required"}
	}
	raw, ok := params.Arguments[0].(string)
	if !ok || raw == "" {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "document uri must be a string"}
	}
	u := protocol.DocumentURI(raw)
	var ranges []protocol.Range
	if len(params.Arguments) > 1 && params.Arguments[1] != nil {
		var err error
		if ranges, err = decodeRanges(params.Arguments[1]); err != nil {
			return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}
	edits, err := s.Format(ctx, conn, u, ranges)
	if err != nil || len(edits) == 0 {
		return err
	}
	edit := protocol.ApplyWorkspaceEditParams{
		Label: "Reformat",
		Edit:  protocol.WorkspaceEdit{Changes: map[protocol.DocumentURI][]protocol.TextEdit{u: edits}},
	}
	// The read loop is blocked while this handler runs, so the client's reply
	// can only be read once we return.
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		var resp protocol.ApplyWorkspaceEditResponse
		if err := conn.Call(context.Background(), protocol.MethodWorkspaceApplyEdit, edit, &resp); err != nil {
			s.logger.Printf("(reformat) applyEdit %s: %v", u, err)
			return
		}
		if !resp.Applied {
			s.logger.Printf("(reformat) client rejected edit for %s: %s", u, resp.FailureReason)
		}
	}()
	return nil
}

func (s *LSPServer) showMessage(ctx context.Context, conn *jsonrpc2.Conn, typ protocol.MessageType, msg string) {
	s.logger.Print(msg)
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, protocol.MethodWindowShowMessage, &protocol.ShowMessageParams{Type: typ, Message: msg}); err != nil {
		s.logger.Printf("(reformat) showMessage: %v", err)
	}
}

// decodeRanges reads the ranges argument of reformat.format, which arrives as
// generic JSON.
func decodeRanges(arg interface{}) ([]protocol.Range, error) {
	data, err := json.Marshal(arg)
	if err != nil {
		return nil, fmt.Errorf("ranges: %w", err)
	}
	var ranges []protocol.Range
	if err := json.Unmarshal(data, &ranges); err != nil {
		return nil, fmt.Errorf("ranges: %w", err)
	}
	return ranges, nil
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

// syntaxFor prefers the editor's language id and falls back to the file
// extension.
func syntaxFor(languageID, path string) string {
	if framework.ResolveSyntax(languageID) != framework.SyntaxNone {
		return languageID
	}
	if tag := framework.SyntaxForExtension(filepath.Ext(path)); tag != framework.SyntaxNone {
		return string(tag)
	}
	return languageID
}

func uriToPath(u protocol.DocumentURI) (string, bool) {
	parsed, err := url.Parse(string(u))
	if err != nil || parsed.Scheme != uri.FileScheme {
		return "", false
	}
	return u.Filename(), true
}

// StdioConn joins a reader and writer, typically os.Stdin and os.Stdout.
type StdioConn struct {
	Reader io.ReadCloser
	Writer io.WriteCloser
}

func (s StdioConn) Read(p []byte) (int, error)  { return s.Reader.Read(p) }
func (s StdioConn) Write(p []byte) (int, error) { return s.Writer.Write(p) }
func (s StdioConn) Close() error {
	return errors.Join(s.Reader.Close(), s.Writer.Close())
}
