package corpus

import (
	"context"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// Document is a named text held by a MemorySource.
type Document struct {
	ID   string
	Text string
}

// MemorySource serves an embedded corpus. A nil IDs or Noise slice is
// reported as a missing resource; an ID without an entry in Texts is a
// missing document.
type MemorySource struct {
	IDs   []string
	Texts map[string]string
	Noise []string
}

func NewMemorySource(noise []string, docs ...Document) *MemorySource {
	s := &MemorySource{
		IDs:   make([]string, 0, len(docs)),
		Texts: make(map[string]string, len(docs)),
		Noise: append([]string{}, noise...),
	}
	for _, d := range docs {
		s.IDs = append(s.IDs, d.ID)
		s.Texts[d.ID] = d.Text
	}
	return s
}

func (s *MemorySource) DocumentIDs(ctx context.Context) ([]string, error) {
	if s.IDs == nil {
		return nil, apperrors.NotFound("document list", "memory")
	}
	return append([]string(nil), s.IDs...), nil
}

func (s *MemorySource) NoiseWords(ctx context.Context) ([]string, error) {
	if s.Noise == nil {
		return nil, apperrors.NotFound("noise-word list", "memory")
	}
	return append([]string(nil), s.Noise...), nil
}

func (s *MemorySource) Content(ctx context.Context, docID string) (string, error) {
	text, ok := s.Texts[docID]
	if !ok {
		return "", apperrors.NotFound("document", docID)
	}
	return text, nil
}
