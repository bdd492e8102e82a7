package lsp

import (
	"context"
	"encoding/json"

	"github.com/conduit-lang/excellent/internal/tooling"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// handleTextDocumentCompletion handles completion requests
func (s *Server) handleTextDocumentCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion params")
	}

	uri := string(params.TextDocument.URI)

	completions, err := s.api.GetCompletions(ctx, uri, s.runePosition(uri, params.Position))
	if err != nil {
		s.logger.Warn("error getting completions", zap.String("uri", uri), zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get completions")
	}

	items := make([]protocol.CompletionItem, 0, len(completions))
	for _, c := range completions {
		items = append(items, protocol.CompletionItem{
			Label:            c.Label,
			Kind:             convertCompletionKind(c.Kind),
			Detail:           c.Detail,
			InsertText:       c.InsertText,
			InsertTextFormat: protocol.InsertTextFormatPlainText,
			SortText:         c.SortText,
		})
	}

	result := protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}

	return reply(ctx, result, nil)
}

// handleTextDocumentHover handles hover requests
func (s *Server) handleTextDocumentHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse hover params")
	}

	uri := string(params.TextDocument.URI)

	hover, err := s.api.GetHover(ctx, uri, s.runePosition(uri, params.Position))
	if err != nil {
		s.logger.Warn("error getting hover", zap.String("uri", uri), zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get hover information")
	}

	if hover == nil {
		return reply(ctx, nil, nil)
	}

	r := s.clientRange(uri, hover.Range)
	result := protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hover.Contents,
		},
		Range: &r,
	}

	return reply(ctx, result, nil)
}

// handleTextDocumentReferences handles find references requests
func (s *Server) handleTextDocumentReferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.ReferenceParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse references params")
	}

	uri := string(params.TextDocument.URI)

	references, err := s.api.GetReferences(uri, s.runePosition(uri, params.Position))
	if err != nil {
		s.logger.Warn("error getting references", zap.String("uri", uri), zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get references")
	}

	locations := make([]protocol.Location, 0, len(references))
	for _, ref := range references {
		locations = append(locations, protocol.Location{
			URI:   protocol.DocumentURI(ref.URI),
			Range: s.clientRange(ref.URI, ref.Range),
		})
	}

	return reply(ctx, locations, nil)
}

// handleTextDocumentDocumentSymbol handles document symbol requests
func (s *Server) handleTextDocumentDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse document symbol params")
	}

	uri := string(params.TextDocument.URI)

	symbols, err := s.api.GetDocumentSymbols(uri)
	if err != nil {
		s.logger.Warn("error getting document symbols", zap.String("uri", uri), zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get document symbols")
	}

	lspSymbols := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		lspSymbols = append(lspSymbols, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           convertSymbolKind(sym.Kind),
			Detail:         sym.Detail,
			Range:          s.clientRange(uri, sym.Range),
			SelectionRange: s.clientRange(uri, sym.Range),
		})
	}

	return reply(ctx, lspSymbols, nil)
}

// handleWorkspaceSymbol handles workspace symbol search requests
func (s *Server) handleWorkspaceSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse workspace symbol params")
	}

	indexedSymbols := s.api.GetWorkspaceSymbols(params.Query)

	symbols := make([]protocol.SymbolInformation, 0, len(indexedSymbols))
	for _, indexed := range indexedSymbols {
		symbols = append(symbols, protocol.SymbolInformation{
			Name: indexed.Symbol.Name,
			Kind: convertSymbolKind(indexed.Symbol.Kind),
			Location: protocol.Location{
				URI:   protocol.DocumentURI(indexed.URI),
				Range: s.clientRange(indexed.URI, indexed.Range),
			},
			ContainerName: indexed.Symbol.ContainerName,
		})
	}

	return reply(ctx, symbols, nil)
}

// Helper functions to convert between tooling and LSP types

// runePosition converts a client position, whose character counts UTF-16 code
// units, to the rune based position the tooling API works with
func (s *Server) runePosition(uri string, pos protocol.Position) tooling.Position {
	p := convertPosition(pos)
	if doc, ok := s.api.GetDocument(uri); ok {
		return doc.RunePosition(p)
	}
	return p
}

// clientRange converts a rune based range in uri to UTF-16 code units
func (s *Server) clientRange(uri string, r tooling.Range) protocol.Range {
	if doc, ok := s.api.GetDocument(uri); ok {
		r = doc.UTF16Range(r)
	}
	return convertRange(r)
}

func convertPosition(pos protocol.Position) tooling.Position {
	return tooling.Position{
		Line:      int(pos.Line),
		Character: int(pos.Character),
	}
}

func convertRange(r tooling.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(r.Start.Line),
			Character: uint32(r.Start.Character),
		},
		End: protocol.Position{
			Line:      uint32(r.End.Line),
			Character: uint32(r.End.Character),
		},
	}
}

func convertCompletionKind(kind tooling.CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case tooling.CompletionKindVariable:
		return protocol.CompletionItemKindVariable
	case tooling.CompletionKindField:
		return protocol.CompletionItemKindField
	case tooling.CompletionKindFunction:
		return protocol.CompletionItemKindFunction
	default:
		return protocol.CompletionItemKindText
	}
}

func convertSymbolKind(kind tooling.SymbolKind) protocol.SymbolKind {
	switch kind {
	case tooling.SymbolKindVariable:
		return protocol.SymbolKindVariable
	case tooling.SymbolKindExpression:
		return protocol.SymbolKindFunction
	default:
		return protocol.SymbolKindObject
	}
}
