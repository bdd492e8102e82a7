package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"contact", "contact", 0},
		{"contcat", "contact", 2},
		{"kitten", "sitting", 3},
		{"flw", "flow", 1},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"->"+tt.s2, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.s1, tt.s2))
		})
	}
}

func TestFindSimilar(t *testing.T) {
	topLevels := []string{"channel", "contact", "date", "extra", "flow", "step", "parent", "child"}

	tests := []struct {
		name   string
		target string
		opts   *SimilarOptions
		want   []string
	}{
		{"transposition", "contcat", nil, []string{"contact"}},
		{"missing letter", "flw", nil, []string{"flow"}},
		{"case insensitive", "CONTAKT", nil, []string{"contact"}},
		{"exact match excluded", "contact", nil, []string{}},
		{"nothing close", "organization", nil, []string{}},
		{"case sensitive", "CONTACT", &SimilarOptions{CaseSensitive: true}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSimilar(tt.target, topLevels, tt.opts))
		})
	}
}

func TestFindSimilar_Ordering(t *testing.T) {
	candidates := []string{"rat", "hat", "cart", "bat"}

	assert.Equal(t, []string{"bat", "cart", "hat"}, FindSimilar("cat", candidates, nil))
	assert.Equal(t, []string{"bat", "cart"}, FindSimilar("cat", candidates, &SimilarOptions{MaxSuggestions: 2}))
	assert.Equal(t, []string{"bat", "hat", "rat"}, FindSimilar("cat", []string{"rat", "hat", "bat", "dog"}, nil))
}
