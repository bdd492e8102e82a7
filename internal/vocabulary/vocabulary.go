// Package vocabulary supplies the names autocomplete can offer: the allowed top
// levels, the fields below each context path, and the functions available inside
// parenthesized expressions.
package vocabulary

import (
	"context"
	"sort"
	"strings"
)

// Kind categorizes an entry
type Kind int

const (
	// KindTopLevel is a top-level context name such as contact
	KindTopLevel Kind = iota
	// KindField is a path below a top level such as contact.name
	KindField
	// KindFunction is a function callable inside @( ... )
	KindFunction
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindTopLevel:
		return "top_level"
	case KindField:
		return "field"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Entry is a single completable name
type Entry struct {
	// Name is the last path segment, e.g. "name"
	Name string `json:"name"`
	// Path is the full dotted path, e.g. "contact.name"
	Path   string `json:"path"`
	Detail string `json:"detail,omitempty"`
	Kind   Kind   `json:"kind"`
}

// Store looks up vocabulary entries
type Store interface {
	// Children returns the entries directly below parent; an empty parent
	// returns the top levels
	Children(ctx context.Context, parent string) ([]Entry, error)

	// Functions returns the callable functions
	Functions(ctx context.Context) ([]Entry, error)
}

// NormalizePath lower-cases a dotted path and trims surrounding periods
func NormalizePath(path string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(path)), ".")
}

// JoinPath joins a parent path and a child name
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// SplitPath splits a path at its last period into parent and name
func SplitPath(path string) (parent, name string) {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}

// merged combines several stores
type merged []Store

// Merge returns a Store that combines the entries of all stores, keeping the first
// entry seen for each path
func Merge(stores ...Store) Store {
	out := make(merged, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m merged) Children(ctx context.Context, parent string) ([]Entry, error) {
	return m.collect(func(s Store) ([]Entry, error) { return s.Children(ctx, parent) })
}

func (m merged) Functions(ctx context.Context) ([]Entry, error) {
	return m.collect(func(s Store) ([]Entry, error) { return s.Functions(ctx) })
}

func (m merged) collect(fetch func(Store) ([]Entry, error)) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for _, store := range m {
		found, err := fetch(store)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if seen[e.Path] {
				continue
			}
			seen[e.Path] = true
			entries = append(entries, e)
		}
	}

	sortEntries(entries)
	return entries, nil
}
