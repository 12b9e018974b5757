package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks azusena/internal/rag Searcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks azusena/internal/rag Generator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks azusena/internal/rag Engine

import (
	"context"

	"azusena/internal/indexer"
)

// Searcher returns the k articles nearest to text, best first.
// It is implemented by indexer.Index.
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]indexer.Hit, error)
}

// viewer is implemented by searchers whose index can be swapped while a
// query is between search and article lookup.
type viewer interface {
	View(fn func() error) error
}

// Generator produces a completion from a system prompt, optional context and
// the user text. It is implemented by the llm clients.
type Generator interface {
	Generate(ctx context.Context, system, contextText, user string) (string, error)
}

// Engine answers user queries.
type Engine interface {
	// Answer routes a query through lookup, listing, retrieval or generation.
	// Pipeline failures are returned as a degraded answer; only an empty query is an error.
	Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error)

	// Article looks up an article by its exact number. A store failure returns
	// the unavailable message together with a *QueryError.
	Article(ctx context.Context, number string) (AnswerResponse, error)

	// Theme lists the articles whose theme (and subtheme) contain the given text.
	Theme(ctx context.Context, theme, subtheme string) (string, error)

	// EndSession forgets a conversation. It reports whether the session existed.
	EndSession(id string) bool
}
