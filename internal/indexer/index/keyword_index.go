package index

import (
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
)

// KeywordIndex maps every keyword to its ranked OccurrenceList.
type KeywordIndex struct {
	mu          sync.RWMutex
	index       map[string]OccurrenceList
	docCount    int
	occurrences int
}

type Stats struct {
	Keywords    int `json:"keywords"`
	Documents   int `json:"documents"`
	Occurrences int `json:"occurrences"`
}

func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{
		index: make(map[string]OccurrenceList),
	}
}

// CountKeywords counts the keywords of a single document. The result holds
// one Occurrence per distinct keyword.
func CountKeywords(docID string, text string, n *tokenizer.Normalizer) map[string]Occurrence {
	kws := make(map[string]Occurrence)
	for _, token := range n.Tokenize(text) {
		o, exists := kws[token.Term]
		if !exists {
			o = Occurrence{Document: docID}
		}
		o.Frequency++
		kws[token.Term] = o
	}
	return kws
}

// AddDocument counts the keywords of text and merges them into the index.
// It returns the number of distinct keywords merged.
func (m *KeywordIndex) AddDocument(docID string, text string, n *tokenizer.Normalizer) int {
	kws := CountKeywords(docID, text, n)
	m.Merge(kws)
	return len(kws)
}

// Merge inserts each keyword's occurrence for one document into the index.
// Keywords are visited in sorted order.
func (m *KeywordIndex) Merge(kws map[string]Occurrence) {
	keywords := make([]string, 0, len(kws))
	for kw := range kws {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kw := range keywords {
		o := kws[kw]
		list, exists := m.index[kw]
		if !exists {
			m.index[kw] = OccurrenceList{o}
		} else {
			m.index[kw], _ = list.Insert(o)
		}
		m.occurrences++
	}
	m.docCount++
}

// Lookup returns a copy of the ranked list for keyword, or nil when the
// keyword was never indexed.
func (m *KeywordIndex) Lookup(keyword string) OccurrenceList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, exists := m.index[keyword]
	if !exists {
		return nil
	}
	result := make(OccurrenceList, len(list))
	copy(result, list)
	return result
}

// Snapshot returns every keyword with a copy of its list, sorted by keyword.
func (m *KeywordIndex) Snapshot() []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.index))
	for kw, list := range m.index {
		occs := make(OccurrenceList, len(list))
		copy(occs, list)
		entries = append(entries, TermEntry{
			Keyword:     kw,
			Occurrences: occs,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Keyword < entries[j].Keyword
	})
	return entries
}

func (m *KeywordIndex) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Keywords:    len(m.index),
		Documents:   m.docCount,
		Occurrences: m.occurrences,
	}
}

func (m *KeywordIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string]OccurrenceList)
	m.docCount = 0
	m.occurrences = 0
}
