// Package parser turns a two-keyword OR query into a QueryPlan.
package parser

import (
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// QueryPlan holds the canonical form of both keywords. A keyword that is not
// a valid token is kept as the empty string and matches nothing.
type QueryPlan struct {
	First    string `json:"first"`
	Second   string `json:"second"`
	RawQuery string `json:"raw_query"`
}

// Keywords returns the keywords that can match at least one document.
func (p *QueryPlan) Keywords() []string {
	kws := make([]string, 0, 2)
	if p.First != "" {
		kws = append(kws, p.First)
	}
	if p.Second != "" && p.Second != p.First {
		kws = append(kws, p.Second)
	}
	return kws
}

// Empty reports whether neither keyword can match.
func (p *QueryPlan) Empty() bool {
	return p.First == "" && p.Second == ""
}

// Parse accepts "kw1 or kw2", "kw1 kw2" or a single keyword. The OR
// operator is case-insensitive. Anything else is invalid input.
func Parse(query string) (*QueryPlan, error) {
	words := strings.Fields(query)
	if len(words) == 3 && strings.EqualFold(words[1], "or") {
		words = []string{words[0], words[2]}
	}
	switch {
	case len(words) == 0:
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query is empty")
	case len(words) > 2:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"query %q must name at most two keywords joined by OR", query)
	}
	for _, w := range words {
		if strings.EqualFold(w, "or") || strings.EqualFold(w, "and") || strings.EqualFold(w, "not") {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"operator %q is misplaced or unsupported", w)
		}
	}

	plan := &QueryPlan{RawQuery: query}
	plan.First = canonical(words[0])
	if len(words) == 2 {
		plan.Second = canonical(words[1])
	}
	return plan, nil
}

// FromKeywords builds a plan from two separately supplied keywords. Either
// may be empty, but not both.
func FromKeywords(kw1, kw2 string) (*QueryPlan, error) {
	kw1, kw2 = strings.TrimSpace(kw1), strings.TrimSpace(kw2)
	if kw1 == "" && kw2 == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "at least one keyword is required")
	}
	return &QueryPlan{
		First:    canonical(kw1),
		Second:   canonical(kw2),
		RawQuery: strings.TrimSpace(kw1 + " or " + kw2),
	}, nil
}

func canonical(word string) string {
	kw, _ := tokenizer.Canonical(word)
	return kw
}
