package tooling

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

// CompletionItem represents a completion suggestion
type CompletionItem struct {
	// Label is the text to display
	Label string `json:"label"`

	Kind CompletionKind `json:"kind"`

	// Detail provides additional information
	Detail string `json:"detail,omitempty"`

	// InsertText replaces the partial name being typed
	InsertText string `json:"insert_text"`

	// SortText preserves ranking in clients that sort by it
	SortText string `json:"sort_text"`
}

// CompletionKind categorizes completion items
type CompletionKind int

const (
	// CompletionKindVariable is a top-level context name
	CompletionKindVariable CompletionKind = iota
	// CompletionKindField is a field below a context path
	CompletionKindField
	// CompletionKindFunction is a function
	CompletionKindFunction
)

// String returns the lower-case name of the kind
func (k CompletionKind) String() string {
	switch k {
	case CompletionKindVariable:
		return "variable"
	case CompletionKindField:
		return "field"
	case CompletionKindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name so JSON clients don't depend on ordinals
func (k CompletionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// GetCompletions returns completion items for the cursor position in a document
func (a *API) GetCompletions(ctx context.Context, uri string, pos Position) ([]CompletionItem, error) {
	doc, err := a.document(uri)
	if err != nil {
		return nil, err
	}

	text := runePrefix(doc.Content, doc.lines.offset(pos))
	_, items, err := a.Complete(ctx, text)
	return items, err
}

// Complete returns the autocomplete context at the end of text and the items
// matching it. The context is empty, with no items, when the text doesn't end in
// a completable expression.
func (a *API) Complete(ctx context.Context, text string) (string, []CompletionItem, error) {
	path, ok := a.lexer.AutoCompleteContext(text)
	if !ok {
		return "", []CompletionItem{}, nil
	}

	fragment, _ := a.lexer.ExpressionContext(text)
	parenthesized := strings.HasPrefix(fragment, "(")

	parent, partial := vocabulary.SplitPath(path)

	entries, err := a.vocab.Children(ctx, parent)
	if err != nil {
		return path, nil, fmt.Errorf("failed to load vocabulary for %q: %w", parent, err)
	}

	if parenthesized && parent == "" {
		functions, err := a.vocab.Functions(ctx)
		if err != nil {
			return path, nil, fmt.Errorf("failed to load functions: %w", err)
		}
		entries = append(entries, functions...)
	}

	ranked := rankEntries(partial, entries)

	items := make([]CompletionItem, 0, len(ranked))
	for i, e := range ranked {
		items = append(items, CompletionItem{
			Label:      e.Name,
			Kind:       completionKind(e.Kind),
			Detail:     e.Detail,
			InsertText: e.Name,
			SortText:   fmt.Sprintf("%04d", i),
		})
	}

	a.logger.Debug("completion",
		zap.String("context", path),
		zap.Int("candidates", len(entries)),
		zap.Int("items", len(items)))

	return path, items, nil
}

// rankEntries orders entries by how well their names fuzzy-match partial.
// An empty partial keeps every entry in alphabetical order.
func rankEntries(partial string, entries []vocabulary.Entry) []vocabulary.Entry {
	if partial == "" {
		out := make([]vocabulary.Entry, len(entries))
		copy(out, entries)
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
		return out
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	ranks := fuzzy.RankFindFold(partial, names)
	sort.Stable(ranks)

	out := make([]vocabulary.Entry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}

func completionKind(kind vocabulary.Kind) CompletionKind {
	switch kind {
	case vocabulary.KindField:
		return CompletionKindField
	case vocabulary.KindFunction:
		return CompletionKindFunction
	default:
		return CompletionKindVariable
	}
}
