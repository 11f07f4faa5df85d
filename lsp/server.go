/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package lsp is a thin editor-facing front end: it translates
// textDocument/didOpen, didChange, and didClose into shadow edits on the
// compile client, and exposes a steal-backed JumpFromCursor method. No
// custom jump-query request is registered on the protocol handler.
package lsp

import (
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"inkwell.dev/typeset/actor"
	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/internal/logging"
	"inkwell.dev/typeset/shadow"
)

const name = "typeset-lsp"

// JumpFromCursorParams is the custom request's payload: a document URI and
// a 0-based (line, column) position within it.
type JumpFromCursorParams struct {
	URI  protocol.DocumentUri `json:"uri"`
	Line int                  `json:"line"`
	Col  int                  `json:"col"`
}

// JumpFromCursorResult mirrors locator.JumpPoint over the wire.
type JumpFromCursorResult struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Server wires LSP notifications/requests to a compile actor client.
type Server struct {
	client  *actor.Client
	handler protocol.Handler
}

func NewServer(client *actor.Client) *Server {
	s := &Server{client: client}

	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidClose:  s.didClose,
	}

	return s
}

// Run starts the LSP server over stdio.
func (s *Server) Run() error {
	commonlog.Configure(1, nil)
	logging.SetMode(logging.ModeLSP)

	server := glspserver.NewServer(&s.handler, name, false)
	return server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	logging.SetLSPContext(ctx)

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	changeKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &changeKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name: name,
		},
	}, nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	s.client.AddMemoryChanges(shadow.UpdateEvent{
		Payload: shadow.UpdatePayload{
			Inserts: map[string][]byte{path: []byte(params.TextDocument.Text)},
		},
	})
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	// Full-document sync is advertised, so every change arrives as a whole
	// replacement text.
	for _, change := range params.ContentChanges {
		if full, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.client.AddMemoryChanges(shadow.UpdateEvent{
				Payload: shadow.UpdatePayload{
					Inserts: map[string][]byte{path: []byte(full.Text)},
				},
			})
		}
	}
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	s.client.AddMemoryChanges(shadow.UpdateEvent{
		Payload: shadow.UpdatePayload{Removes: []string{path}},
	})
	return nil
}

// JumpFromCursor resolves a source position to a document position through
// the steal channel, so it runs inside the actor loop under exclusive
// borrow. It is a Go method only: the protocol handler does not route any
// request to it, and JumpFromCursorParams is not decoded anywhere.
func (s *Server) JumpFromCursor(fileID compiler.SpanFileID, line, col int) (*JumpFromCursorResult, bool) {
	pt, ok := s.client.ResolveSrcToDocJump(fileID, line, col)
	if !ok || pt == nil {
		return nil, false
	}
	return &JumpFromCursorResult{Page: pt.Page, X: pt.Point.X, Y: pt.Point.Y}, true
}

func uriToPath(uri protocol.DocumentUri) string {
	const prefix = "file://"
	s := string(uri)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
