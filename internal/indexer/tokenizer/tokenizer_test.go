package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyword(t *testing.T) {
	n := NewNormalizer([]string{"the", "and", "a"})

	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"word!!", "word", true},
		{"word?!?!", "word", true},
		{"Word,", "word", true},
		{"DISTANCE.", "distance", true},
		{"swim:;", "swim", true},
		{"wo.rd", "", false},
		{"we're", "", false},
		{"word2", "", false},
		{"word-", "", false},
		{"(word)", "", false},
		{"", "", false},
		{"?!.,", "", false},
		{"The", "", false},
		{"and...", "", false},
		{"café", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := n.Keyword(tt.token)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalIgnoresNoise(t *testing.T) {
	got, ok := Canonical("The!")
	require.True(t, ok)
	require.Equal(t, "the", got)
}

func TestNoiseWordsAreVerbatim(t *testing.T) {
	n := NewNormalizer([]string{"The"})

	got, ok := n.Keyword("the")
	require.True(t, ok, "noise words are not lower-cased on load")
	require.Equal(t, "the", got)
	require.Equal(t, 1, n.NoiseWordCount())
}

func TestTokenize(t *testing.T) {
	n := NewNormalizer([]string{"a", "the"})

	tokens := n.Tokenize("A deep pool,\tthe deep-end\n DEEP! 42 pool.")

	require.Equal(t, []Token{
		{Term: "deep", Position: 1},
		{Term: "pool", Position: 2},
		{Term: "deep", Position: 5},
		{Term: "pool", Position: 7},
	}, tokens)
}

func TestTokenizeEmpty(t *testing.T) {
	n := NewNormalizer(nil)
	require.Empty(t, n.Tokenize("   \n\t "))
}
