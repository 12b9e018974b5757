package rag

import (
	"context"
	"errors"
	"sort"

	"azusena/internal/contextutil"
	"azusena/internal/corpus"
	"azusena/internal/indexer"
	"azusena/internal/storage"
)

// Retriever runs the vector path: enrich, search, resolve records, score and filter.
type Retriever struct {
	searcher Searcher
	store    storage.ArticleStore
	enricher *Enricher
	scorer   *Scorer
}

// NewRetriever creates a Retriever.
func NewRetriever(searcher Searcher, store storage.ArticleStore, enricher *Enricher, scorer *Scorer) *Retriever {
	return &Retriever{searcher: searcher, store: store, enricher: enricher, scorer: scorer}
}

// view runs fn inside the searcher's View when it has one, so hits resolve
// against the rows of the build they came from.
func (r *Retriever) view(fn func() error) error {
	if v, ok := r.searcher.(viewer); ok {
		return v.View(fn)
	}
	return fn()
}

// Retrieve returns up to k matches whose weighted similarity reaches
// threshold, ordered by descending weighted similarity. Weighting uses the
// original query; only the search text is enriched.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, threshold float64) ([]ScoredMatch, error) {
	logger := contextutil.LoggerFromContext(ctx)

	enriched := r.enricher.Enrich(query)
	if enriched != query {
		logger.DebugContext(ctx, "query enriched", "query", query, "enriched", enriched)
	}

	var (
		hits     []indexer.Hit
		articles map[int64]corpus.Article
	)
	err := r.view(func() error {
		var err error
		hits, err = r.searcher.Search(ctx, enriched, k)
		if err != nil {
			if errors.Is(err, indexer.ErrEmbedding) {
				return &QueryError{Stage: StageEmbed, Err: err}
			}
			return &QueryError{Stage: StageSearch, Err: err}
		}
		if len(hits) == 0 {
			return nil
		}

		ids := make([]int64, len(hits))
		for i, h := range hits {
			ids[i] = h.ArticleID
		}
		articles, err = r.store.GetByIDs(ctx, ids)
		if err != nil {
			return &QueryError{Stage: StageResolve, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	matches := make([]ScoredMatch, 0, len(hits))
	for _, h := range hits {
		a, ok := articles[h.ArticleID]
		if !ok {
			logger.WarnContext(ctx, "search hit has no stored article", "article_id", h.ArticleID)
			continue
		}
		weighted := r.scorer.Score(query, h.Score, a)
		if weighted < threshold {
			continue
		}
		matches = append(matches, ScoredMatch{Article: a, Raw: h.Score, Weighted: weighted})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Weighted > matches[j].Weighted
	})

	logger.InfoContext(ctx, "retrieval completed",
		"hits", len(hits),
		"matches", len(matches),
		"threshold", threshold,
	)
	return matches, nil
}
