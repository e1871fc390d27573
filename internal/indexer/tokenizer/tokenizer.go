// Package tokenizer turns raw whitespace-delimited tokens into keywords.
// A keyword is a lower-cased word of letters a-z, stripped of trailing
// punctuation, that is not a noise word.
package tokenizer

import (
	"strings"
)

// trailingPunctuation lists the only characters stripped from the end of a
// token. Any other non-letter disqualifies the token.
const trailingPunctuation = ".,?:;!"

// Token is an accepted keyword and the position of the raw token it came
// from in the original text.
type Token struct {
	Term     string
	Position int
}

// Normalizer applies the keyword rule against a fixed noise-word set.
type Normalizer struct {
	noise map[string]struct{}
}

// NewNormalizer builds a Normalizer. Noise words are stored verbatim.
func NewNormalizer(noiseWords []string) *Normalizer {
	noise := make(map[string]struct{}, len(noiseWords))
	for _, w := range noiseWords {
		noise[w] = struct{}{}
	}
	return &Normalizer{noise: noise}
}

// Keyword returns the keyword for token, or false when the token is rejected.
func (n *Normalizer) Keyword(token string) (string, bool) {
	word, ok := Canonical(token)
	if !ok {
		return "", false
	}
	if n.IsNoise(word) {
		return "", false
	}
	return word, true
}

// IsNoise reports whether word is in the noise-word set.
func (n *Normalizer) IsNoise(word string) bool {
	_, isNoise := n.noise[word]
	return isNoise
}

// NoiseWordCount returns the size of the noise-word set.
func (n *Normalizer) NoiseWordCount() int {
	return len(n.noise)
}

// Tokenize splits text on whitespace and returns the accepted keywords.
func (n *Normalizer) Tokenize(text string) []Token {
	words := strings.Fields(text)
	tokens := make([]Token, 0, len(words)/2)
	for pos, word := range words {
		term, ok := n.Keyword(word)
		if !ok {
			continue
		}
		tokens = append(tokens, Token{
			Term:     term,
			Position: pos,
		})
	}
	return tokens
}

// Canonical lower-cases token, strips every trailing punctuation character
// and accepts the remainder only if it is non-empty and made of a-z.
func Canonical(token string) (string, bool) {
	word := strings.TrimRight(strings.ToLower(token), trailingPunctuation)
	if word == "" {
		return "", false
	}
	for i := 0; i < len(word); i++ {
		if c := word[i]; c < 'a' || c > 'z' {
			return "", false
		}
	}
	return word, true
}
