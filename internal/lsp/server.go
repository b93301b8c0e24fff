// Package lsp serves YAML key outlines over the Language Server Protocol.
package lsp

import (
	"bytes"
	"log/slog"
	"net/url"
	"path"
	"sync"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/dgallion1/yamloutline/internal/parser"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const Name = "yamloutline"

// Server keeps the text of every open document and answers symbol requests
// from it.
type Server struct {
	mu        sync.Mutex
	documents map[protocol.DocumentUri]string

	policy  outline.DedentPolicy
	version string
	handler protocol.Handler
	log     *slog.Logger
}

func New(policy outline.DedentPolicy, version string, log *slog.Logger) *Server {
	s := &Server{
		documents: make(map[protocol.DocumentUri]string),
		policy:    policy,
		version:   version,
		log:       log,
	}
	s.handler = protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdown,
		SetTrace:                   s.setTrace,
		TextDocumentDidOpen:        s.didOpen,
		TextDocumentDidChange:      s.didChange,
		TextDocumentDidClose:       s.didClose,
		TextDocumentDocumentSymbol: s.documentSymbol,
	}
	return s
}

// RunStdio serves on stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	return server.NewServer(&s.handler, Name, false).RunStdio()
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.ClientInfo != nil {
		s.log.Info("client connected", "client", params.ClientInfo.Name)
	}

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[params.TextDocument.URI] = params.TextDocument.Text
	return nil
}

// didChange applies full-text changes; the server only advertises full sync.
func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			s.documents[params.TextDocument.URI] = c.Text
		case *protocol.TextDocumentContentChangeEventWhole:
			s.documents[params.TextDocument.URI] = c.Text
		default:
			s.log.Warn("ignoring incremental change", "uri", params.TextDocument.URI)
		}
	}
	return nil
}

func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, params.TextDocument.URI)
	return nil
}

func (s *Server) documentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	return s.Symbols(params.TextDocument.URI), nil
}

// Symbols returns one Key symbol per outline record of the open document at
// uri, in line order. Unknown documents have no symbols.
func (s *Server) Symbols(uri protocol.DocumentUri) []protocol.SymbolInformation {
	s.mu.Lock()
	text, ok := s.documents[uri]
	s.mu.Unlock()

	symbols := []protocol.SymbolInformation{}
	if !ok {
		return symbols
	}

	for _, e := range s.outline(uri, text).Entries {
		line := protocol.UInteger(e.Range.Line)
		symbols = append(symbols, protocol.SymbolInformation{
			Name: e.Key,
			Kind: protocol.SymbolKindKey,
			Location: protocol.Location{
				URI: uri,
				Range: protocol.Range{
					Start: protocol.Position{Line: line, Character: protocol.UInteger(e.Range.Start)},
					End:   protocol.Position{Line: line, Character: protocol.UInteger(e.Range.End)},
				},
			},
		})
	}
	return symbols
}

// outline picks a parser from the document name. Markdown keeps its fenced
// blocks at their source lines; anything else is read as plain YAML.
func (s *Server) outline(uri protocol.DocumentUri, text string) *doctree.DocTree {
	name := documentName(uri)
	if p, err := parser.ForFile(name, parser.Options{}); err == nil {
		if _, ok := p.(*parser.MarkdownParser); ok {
			if src, err := p.Parse(bytes.NewReader([]byte(text)), name); err == nil {
				return doctree.Outline(src, s.policy)
			}
		}
	}
	src := &doctree.Source{
		Segments: []doctree.Segment{{Lines: outline.SplitLines(text)}},
	}
	return doctree.Outline(src, s.policy)
}

func documentName(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Path == "" {
		return path.Base(string(uri))
	}
	return path.Base(u.Path)
}
