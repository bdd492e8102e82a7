package tooling

import (
	"sort"
	"strings"
	"sync"

	"github.com/conduit-lang/excellent/pkg/lexer"
)

// Symbol is an expression found in a document
type Symbol struct {
	// Name is the expression text including its prefix
	Name string
	Kind SymbolKind

	Range Range

	// Key is the normalized body used to match references
	Key string

	// ContainerName is the top level of a context path
	ContainerName string

	Detail string
}

// SymbolKind categorizes symbols for editor display
type SymbolKind int

const (
	// SymbolKindVariable represents a context path such as @contact.name
	SymbolKindVariable SymbolKind = iota
	// SymbolKindExpression represents a parenthesized expression
	SymbolKindExpression
)

// SymbolIndex maintains a searchable index of expressions across documents
type SymbolIndex struct {
	// symbols maps a symbol key to every occurrence
	symbols map[string][]*IndexedSymbol
	mutex   sync.RWMutex
}

// IndexedSymbol represents a symbol with its location
type IndexedSymbol struct {
	URI string
	*Symbol
}

// NewSymbolIndex creates a new symbol index
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]*IndexedSymbol),
	}
}

// Index replaces the symbols of a document
func (si *SymbolIndex) Index(uri string, symbols []*Symbol) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)

	for _, sym := range symbols {
		si.symbols[sym.Key] = append(si.symbols[sym.Key], &IndexedSymbol{URI: uri, Symbol: sym})
	}
}

// RemoveDocument removes all symbols from a document
func (si *SymbolIndex) RemoveDocument(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
}

func (si *SymbolIndex) removeDocumentLocked(uri string) {
	for key, syms := range si.symbols {
		filtered := make([]*IndexedSymbol, 0, len(syms))
		for _, sym := range syms {
			if sym.URI != uri {
				filtered = append(filtered, sym)
			}
		}
		if len(filtered) > 0 {
			si.symbols[key] = filtered
		} else {
			delete(si.symbols, key)
		}
	}
}

// FindReferences returns every location of the symbols with key
func (si *SymbolIndex) FindReferences(key string) []Location {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	syms := si.symbols[key]
	locations := make([]Location, len(syms))
	for i, sym := range syms {
		locations[i] = Location{URI: sym.URI, Range: sym.Range}
	}

	sortLocations(locations)
	return locations
}

// SearchSymbols returns the symbols whose key contains query, case-insensitively.
// An empty query returns everything.
func (si *SymbolIndex) SearchSymbols(query string) []*IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	query = strings.ToLower(query)
	result := make([]*IndexedSymbol, 0)

	for key, syms := range si.symbols {
		if strings.Contains(key, query) {
			result = append(result, syms...)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].URI != result[j].URI {
			return result[i].URI < result[j].URI
		}
		return lessPosition(result[i].Range.Start, result[j].Range.Start)
	})
	return result
}

// GetDocumentSymbols returns the expressions of a document
func (a *API) GetDocumentSymbols(uri string) ([]*Symbol, error) {
	doc, err := a.document(uri)
	if err != nil {
		return nil, err
	}
	return doc.Symbols, nil
}

// GetWorkspaceSymbols searches the expressions of every open document
func (a *API) GetWorkspaceSymbols(query string) []*IndexedSymbol {
	return a.symbolIndex.SearchSymbols(query)
}

// GetReferences returns every occurrence, across open documents, of the
// expression under the cursor
func (a *API) GetReferences(uri string, pos Position) ([]Location, error) {
	doc, err := a.document(uri)
	if err != nil {
		return nil, err
	}

	symbol := findSymbolAtPosition(doc, pos)
	if symbol == nil {
		return []Location{}, nil
	}

	return a.symbolIndex.FindReferences(symbol.Key), nil
}

func (a *API) extractSymbols(doc *Document) []*Symbol {
	symbols := make([]*Symbol, 0, len(doc.Expressions))

	for _, expr := range doc.Expressions {
		text := body(a.lexer, expr)
		sym := &Symbol{
			Name:  expr.Text,
			Range: doc.lines.rangeOf(expr.Start, expr.End),
			Key:   strings.ToLower(text),
		}

		if parenthesized(expr) {
			sym.Kind = SymbolKindExpression
			sym.Detail = "expression"
			if !expr.Complete {
				sym.Detail = "unterminated expression"
			}
		} else {
			sym.Kind = SymbolKindVariable
			sym.ContainerName = lexer.TopLevel(text)
			sym.Detail = "context path"
		}

		symbols = append(symbols, sym)
	}

	return symbols
}

func findSymbolAtPosition(doc *Document, pos Position) *Symbol {
	for _, sym := range doc.Symbols {
		if positionInRange(pos, sym.Range) {
			return sym
		}
	}
	return nil
}

func lessPosition(a, b Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

func sortLocations(locations []Location) {
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].URI != locations[j].URI {
			return locations[i].URI < locations[j].URI
		}
		return lessPosition(locations[i].Range.Start, locations[j].Range.Start)
	})
}
