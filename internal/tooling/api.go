// Package tooling provides the editor-facing API over the expression lexer.
// It keeps open documents, answers completion, hover and symbol queries, and
// computes diagnostics. All methods are safe for concurrent use so the language
// server and the HTTP API can share one instance.
package tooling

import (
	"errors"
	"fmt"
	"sync"

	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/conduit-lang/excellent/pkg/lexer"
	"go.uber.org/zap"
)

// ErrDocumentNotFound is returned for queries against a document that isn't open
var ErrDocumentNotFound = errors.New("document not found")

// API provides thread-safe access to lexer functionality for editors
type API struct {
	lexer  *lexer.Lexer
	vocab  vocabulary.Store
	logger *zap.Logger

	documents map[string]*Document
	docsMutex sync.RWMutex

	// symbolIndex maps expression bodies to their locations across documents
	symbolIndex *SymbolIndex
}

// Config holds the collaborators of the API. Zero values are replaced with
// defaults: the default lexer, a vocabulary of its top levels, and a no-op logger.
type Config struct {
	Lexer      *lexer.Lexer
	Vocabulary vocabulary.Store
	Logger     *zap.Logger
}

// Document is an open document and the expressions found in it
type Document struct {
	// URI is the document identifier (typically a file URI)
	URI string

	// Content is the raw text
	Content string

	// Version tracks document changes
	Version int

	// Expressions are the spans found by the lexer, in order
	Expressions []lexer.Expression

	// Symbols has one entry per expression
	Symbols []*Symbol

	lines lineIndex
}

// Position is a zero-based line and character, counted in runes
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range represents a range in a document
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location represents a range within a document
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// Hover represents hover information for an expression
type Hover struct {
	// Contents is markdown
	Contents string

	Range Range
}

// Diagnostic represents a problem found in a document
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Source   string             `json:"source"`
}

// DiagnosticSeverity indicates the severity of a diagnostic
type DiagnosticSeverity int

const (
	// DiagnosticSeverityError represents an error diagnostic
	DiagnosticSeverityError DiagnosticSeverity = iota
	// DiagnosticSeverityWarning represents a warning diagnostic
	DiagnosticSeverityWarning
	// DiagnosticSeverityInfo represents an informational diagnostic
	DiagnosticSeverityInfo
	// DiagnosticSeverityHint represents a hint diagnostic
	DiagnosticSeverityHint
)

// String returns the lower-case name of the severity
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticSeverityError:
		return "error"
	case DiagnosticSeverityWarning:
		return "warning"
	case DiagnosticSeverityInfo:
		return "info"
	case DiagnosticSeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// diagnosticSource is reported on every diagnostic
const diagnosticSource = "excellent"

// NewAPI creates an API with the default lexer and vocabulary
func NewAPI() *API {
	return NewAPIWithConfig(Config{})
}

// NewAPIWithConfig creates an API from cfg
func NewAPIWithConfig(cfg Config) *API {
	if cfg.Lexer == nil {
		cfg.Lexer = lexer.Default()
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = vocabulary.NewStaticStore(cfg.Lexer.AllowedTopLevels(), nil, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &API{
		lexer:       cfg.Lexer,
		vocab:       cfg.Vocabulary,
		logger:      cfg.Logger,
		documents:   make(map[string]*Document),
		symbolIndex: NewSymbolIndex(),
	}
}

// Lexer returns the lexer used for all documents
func (a *API) Lexer() *lexer.Lexer {
	return a.lexer
}

// OpenDocument scans content and caches it under uri
func (a *API) OpenDocument(uri, content string, version int) *Document {
	doc := a.analyze(uri, content)
	doc.Version = version

	a.docsMutex.Lock()
	a.documents[uri] = doc
	a.docsMutex.Unlock()

	a.symbolIndex.Index(uri, doc.Symbols)

	a.logger.Debug("document opened",
		zap.String("uri", uri),
		zap.Int("version", version),
		zap.Int("expressions", len(doc.Expressions)))

	return doc
}

// UpdateDocument replaces the content of a document. Unknown URIs are opened.
func (a *API) UpdateDocument(uri, content string, version int) *Document {
	a.docsMutex.Lock()
	if old, ok := a.documents[uri]; ok && old.Content == content {
		old.Version = version
		a.docsMutex.Unlock()
		return old
	}
	a.docsMutex.Unlock()

	return a.OpenDocument(uri, content, version)
}

// GetDocument retrieves a cached document
func (a *API) GetDocument(uri string) (*Document, bool) {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	doc, ok := a.documents[uri]
	return doc, ok
}

// CloseDocument removes a document from the cache
func (a *API) CloseDocument(uri string) {
	a.docsMutex.Lock()
	delete(a.documents, uri)
	a.docsMutex.Unlock()

	a.symbolIndex.RemoveDocument(uri)
}

func (a *API) document(uri string) (*Document, error) {
	doc, ok := a.GetDocument(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	return doc, nil
}

func (a *API) analyze(uri, content string) *Document {
	doc := &Document{
		URI:         uri,
		Content:     content,
		Expressions: a.lexer.Scan(content),
		lines:       newLineIndex(content),
	}
	doc.Symbols = a.extractSymbols(doc)
	return doc
}
