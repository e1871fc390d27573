// Package merger combines the ranked occurrence lists of two keywords into a
// single ranked, de-duplicated list of documents.
package merger

import (
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
)

// DefaultLimit is the number of documents an OR query returns.
const DefaultLimit = 5

// TopK merges first and second, both ranked by descending frequency, and
// returns at most k document identifiers.
//
// The higher-frequency head is taken first. On equal frequency the head of
// first is taken, then the head of second if the result is not yet full. A
// document already in the result is consumed without taking a slot. TopK
// returns nil when both lists are empty.
func TopK(first, second index.OccurrenceList, k int) []string {
	if len(first) == 0 && len(second) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultLimit
	}
	m := &merge{
		result: make([]string, 0, k),
		seen:   make(map[string]struct{}, k),
		limit:  k,
	}

	i, j := 0, 0
	for !m.full() && i < len(first) && j < len(second) {
		a, b := first[i], second[j]
		switch {
		case a.Frequency > b.Frequency:
			m.emit(a)
			i++
		case a.Frequency < b.Frequency:
			m.emit(b)
			j++
		default:
			m.emit(a)
			i++
			if !m.full() {
				m.emit(b)
				j++
			}
		}
	}
	for ; !m.full() && i < len(first); i++ {
		m.emit(first[i])
	}
	for ; !m.full() && j < len(second); j++ {
		m.emit(second[j])
	}
	return m.result
}

type merge struct {
	result []string
	seen   map[string]struct{}
	limit  int
}

func (m *merge) full() bool {
	return len(m.result) >= m.limit
}

func (m *merge) emit(o index.Occurrence) {
	if _, dup := m.seen[o.Document]; dup {
		return
	}
	m.seen[o.Document] = struct{}{}
	m.result = append(m.result, o.Document)
}
