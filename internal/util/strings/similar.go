package strings

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance FindSimilar accepts by default
	DefaultMaxDistance = 2
	// DefaultMaxSuggestions caps the suggestions FindSimilar returns by default
	DefaultMaxSuggestions = 3
)

// SimilarOptions configures FindSimilar
type SimilarOptions struct {
	MaxDistance    int  // Maximum edit distance (default: 2)
	MaxSuggestions int  // Maximum number of results (default: 3)
	CaseSensitive  bool // Compare case-sensitively (default: false)
}

type match struct {
	value    string
	distance int
}

// FindSimilar returns the candidates within the configured edit distance of target,
// closest first. Ties keep alphabetical order.
//
// Example:
//
//	FindSimilar("contcat", []string{"contact", "channel", "date"}, nil)
//	// Returns: ["contact"]
func FindSimilar(target string, candidates []string, opts *SimilarOptions) []string {
	o := SimilarOptions{MaxDistance: DefaultMaxDistance, MaxSuggestions: DefaultMaxSuggestions}
	if opts != nil {
		o = *opts
		if o.MaxDistance <= 0 {
			o.MaxDistance = DefaultMaxDistance
		}
		if o.MaxSuggestions <= 0 {
			o.MaxSuggestions = DefaultMaxSuggestions
		}
	}

	if !o.CaseSensitive {
		target = strings.ToLower(target)
	}

	var matches []match
	for _, candidate := range candidates {
		cmp := candidate
		if !o.CaseSensitive {
			cmp = strings.ToLower(candidate)
		}
		if cmp == target {
			continue
		}
		if dist := LevenshteinDistance(target, cmp); dist <= o.MaxDistance {
			matches = append(matches, match{value: candidate, distance: dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].value < matches[j].value
	})

	result := make([]string, 0, o.MaxSuggestions)
	for i := 0; i < len(matches) && i < o.MaxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// LevenshteinDistance is the minimum number of single-rune insertions, deletions
// or substitutions that turn s1 into s2.
//
// Example:
//
//	LevenshteinDistance("kitten", "sitting") // Returns: 3
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// two rows are enough
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
