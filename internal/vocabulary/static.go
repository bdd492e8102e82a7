package vocabulary

import (
	"context"
	"strings"
)

// StaticStore is an in-memory vocabulary built from configuration
type StaticStore struct {
	children  map[string][]Entry
	functions []Entry
}

// NewStaticStore builds a store from top-level names, a map of parent path to
// child names, and function names. Paths are case-insensitive. Parents named in
// fields are registered below their own parents, so "contact.groups" implies a
// "groups" field of "contact".
func NewStaticStore(topLevels []string, fields map[string][]string, functions []string) *StaticStore {
	s := &StaticStore{children: make(map[string][]Entry)}
	seen := make(map[string]bool)

	for _, name := range topLevels {
		s.add(seen, "", name, KindTopLevel)
	}

	for parent, names := range fields {
		parent = NormalizePath(parent)
		if parent == "" {
			continue
		}

		// make sure every ancestor of parent is reachable
		segments := strings.Split(parent, ".")
		for i := range segments {
			kind := KindField
			if i == 0 {
				kind = KindTopLevel
			}
			s.add(seen, strings.Join(segments[:i], "."), segments[i], kind)
		}

		for _, name := range names {
			s.add(seen, parent, name, KindField)
		}
	}

	for _, name := range functions {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" || seen["()"+name] {
			continue
		}
		seen["()"+name] = true
		s.functions = append(s.functions, Entry{Name: name, Path: name, Kind: KindFunction})
	}

	for _, entries := range s.children {
		sortEntries(entries)
	}
	sortEntries(s.functions)

	return s
}

func (s *StaticStore) add(seen map[string]bool, parent, name string, kind Kind) {
	name = NormalizePath(name)
	if name == "" {
		return
	}

	path := JoinPath(parent, name)
	if seen[path] {
		return
	}
	seen[path] = true

	s.children[parent] = append(s.children[parent], Entry{Name: name, Path: path, Kind: kind})
}

// Children returns the entries below parent
func (s *StaticStore) Children(_ context.Context, parent string) ([]Entry, error) {
	entries := s.children[NormalizePath(parent)]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Functions returns the configured functions
func (s *StaticStore) Functions(context.Context) ([]Entry, error) {
	out := make([]Entry, len(s.functions))
	copy(out, s.functions)
	return out, nil
}
