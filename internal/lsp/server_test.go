package lsp

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func newTestServer() *Server {
	return New(outline.DedentNearest, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func open(t *testing.T, s *Server, uri protocol.DocumentUri, text string) {
	t.Helper()
	require.NoError(t, s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "yaml", Version: 1, Text: text},
	}))
}

func names(symbols []protocol.SymbolInformation) []string {
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, sym.Name)
	}
	return out
}

func TestInitialize_AdvertisesSymbols(t *testing.T) {
	s := newTestServer()
	res, err := s.initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	assert.NotNil(t, result.Capabilities.DocumentSymbolProvider)
	assert.Equal(t, Name, result.ServerInfo.Name)

	sync, ok := result.Capabilities.TextDocumentSync.(protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *sync.Change)
}

func TestDocumentSymbol_FlatKeys(t *testing.T) {
	s := newTestServer()
	uri := protocol.DocumentUri("file:///work/app.yaml")
	open(t, s, uri, "server:\n  port: 80\n  tls:\n    cert: a\nclient:\n")

	res, err := s.documentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	symbols := res.([]protocol.SymbolInformation)

	assert.Equal(t, []string{"server", "server.port", "server.tls", "server.tls.cert", "client"}, names(symbols))
	cert := symbols[3]
	assert.Equal(t, protocol.SymbolKindKey, cert.Kind)
	assert.Equal(t, uri, cert.Location.URI)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 3, Character: 4},
		End:   protocol.Position{Line: 3, Character: 8},
	}, cert.Location.Range)
}

func TestDocumentSymbol_FollowsChanges(t *testing.T) {
	s := newTestServer()
	uri := protocol.DocumentUri("file:///work/app.yaml")
	open(t, s, uri, "a:\n")

	require.NoError(t, s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "b:\n  c:\n"}},
	}))
	assert.Equal(t, []string{"b", "b.c"}, names(s.Symbols(uri)))

	require.NoError(t, s.didClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	assert.Empty(t, s.Symbols(uri))
}

func TestDocumentSymbol_MarkdownBlocksKeepSourceLines(t *testing.T) {
	s := newTestServer()
	uri := protocol.DocumentUri("file:///docs/README.md")
	open(t, s, uri, "# Config\n\nSome text.\n\n```yaml\nserver:\n  port: 80\n```\n")

	symbols := s.Symbols(uri)
	require.Len(t, symbols, 2)
	assert.Equal(t, "server.port", symbols[1].Name)
	assert.Equal(t, protocol.UInteger(6), symbols[1].Location.Range.Start.Line)
}

func TestDocumentSymbol_UnknownDocument(t *testing.T) {
	s := newTestServer()
	symbols := s.Symbols("file:///never/opened.yaml")
	assert.NotNil(t, symbols)
	assert.Empty(t, symbols)
}

func TestDocumentName(t *testing.T) {
	assert.Equal(t, "app.yaml", documentName("file:///work/app.yaml"))
	assert.Equal(t, "my file.md", documentName("file:///work/my%20file.md"))
	assert.Equal(t, "untitled", documentName("untitled"))
}
