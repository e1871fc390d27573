package index

// Occurrence records how many times a keyword appears in one document.
type Occurrence struct {
	Document  string `json:"document"`
	Frequency int    `json:"frequency"`
}

// OccurrenceList is kept in non-increasing order of Frequency.
type OccurrenceList []Occurrence

type TermEntry struct {
	Keyword     string         `json:"keyword"`
	Occurrences OccurrenceList `json:"occurrences"`
}

// Documents returns the document identifiers in list order.
func (l OccurrenceList) Documents() []string {
	docs := make([]string, len(l))
	for i, o := range l {
		docs[i] = o.Document
	}
	return docs
}

// IsRanked reports whether the list is non-increasing in frequency.
func (l OccurrenceList) IsRanked() bool {
	for i := 1; i < len(l); i++ {
		if l[i].Frequency > l[i-1].Frequency {
			return false
		}
	}
	return true
}

// Insert appends o and moves it to its ranked position. It returns the
// updated list and the midpoints examined by InsertLast.
func (l OccurrenceList) Insert(o Occurrence) (OccurrenceList, []int) {
	return InsertLast(append(l, o))
}

// InsertLast moves the trailing element of list into its position in the
// ranked prefix list[:len(list)-1], using binary search over the prefix.
//
// A midpoint with the same frequency ends the search and the new element is
// placed in front of it. The returned slice holds every midpoint index
// examined, in order; it is nil when list has fewer than two elements.
func InsertLast(list OccurrenceList) (OccurrenceList, []int) {
	n := len(list)
	if n <= 1 {
		return list, nil
	}
	last := list[n-1]
	probes := make([]int, 0, 8)

	lo, hi := 0, n-2
	mid := (lo + hi) / 2
	for lo <= hi {
		mid = (lo + hi) / 2
		probes = append(probes, mid)
		f := list[mid].Frequency
		if f < last.Frequency {
			hi = mid - 1
		} else if f > last.Frequency {
			lo = mid + 1
			if hi <= mid {
				mid++
			}
		} else {
			break
		}
	}

	copy(list[mid+1:], list[mid:n-1])
	list[mid] = last
	return list, probes
}
