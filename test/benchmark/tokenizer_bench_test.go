package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
)

var noiseWords = []string{"a", "an", "and", "are", "for", "in", "is", "of", "the", "to", "with"}

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog!",
	"medium": `Keyword indexes map every word of a document to the documents that
        contain it, along with a count. Queries look up at most two keywords and
        merge the ranked lists, so lookups stay cheap even for large collections.
        Tokens such as don't, 3rd or e-mail are rejected outright; trailing
        punctuation like commas, periods and question marks is stripped?`,
	"long": strings.Repeat(`Information retrieval systems form the backbone of search.
        Each document is split on whitespace, lower-cased, stripped of trailing
        punctuation and filtered against a list of noise words. The surviving
        keywords are counted per document, and each count is inserted into a
        list kept in descending order of frequency. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	n := tokenizer.NewNormalizer(noiseWords)
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = n.Tokenize(text)
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	n := tokenizer.NewNormalizer(noiseWords)
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = n.Tokenize(text)
		}
	})
}

func BenchmarkCanonical(b *testing.B) {
	tokens := []string{"Apple", "banana!?", "don't", "e-mail", "QUERY...", "r2d2", "cherry;", "..."}
	b.ReportAllocs()
	for b.Loop() {
		for _, tok := range tokens {
			_, _ = tokenizer.Canonical(tok)
		}
	}
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	n := tokenizer.NewNormalizer(noiseWords)
	base := "search keyword index merge ranked list of documents "
	for _, size := range []int{10, 100, 500, 1000, 5000} {
		text := strings.Repeat(base, size/len(base)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = n.Tokenize(text)
			}
		})
	}
}
