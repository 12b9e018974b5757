package rag

import (
	"strings"

	"azusena/internal/policy"
)

// Enricher expands a query with the related terms of every concept it mentions.
type Enricher struct {
	concepts []policy.Concept
}

// NewEnricher creates an Enricher over an ordered concept map.
func NewEnricher(concepts []policy.Concept) *Enricher {
	return &Enricher{concepts: concepts}
}

// Enrich appends, in concept order, the related terms of each trigger found in
// the lower-cased query. A query without triggers is returned unchanged.
func (e *Enricher) Enrich(query string) string {
	lower := strings.ToLower(query)

	var terms []string
	for _, c := range e.concepts {
		if c.Trigger != "" && strings.Contains(lower, strings.ToLower(c.Trigger)) {
			terms = append(terms, c.Related...)
		}
	}
	if len(terms) == 0 {
		return query
	}
	return query + " " + strings.Join(terms, " ")
}
