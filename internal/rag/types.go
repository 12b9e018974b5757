package rag

import (
	"errors"
	"fmt"

	"azusena/internal/corpus"
)

// Route names the path that produced an answer.
type Route string

const (
	// RouteArticle answers an explicit article number with an exact lookup.
	RouteArticle Route = "article"
	// RouteListing lists articles by position ("los diez primeros artículos").
	RouteListing Route = "listing"
	// RouteKnowledgeBase answers a list request straight from the corpus.
	RouteKnowledgeBase Route = "knowledge_base"
	// RouteContext generates an answer grounded on retrieved articles.
	RouteContext Route = "context"
	// RouteConservative cites the best matches when they are thematically incoherent.
	RouteConservative Route = "conservative"
	// RouteGeneration generates an answer from the conversation alone.
	RouteGeneration Route = "generation"
	// RouteError is the degraded answer after a failure.
	RouteError Route = "error"
)

// ErrEmptyQuery is returned when nothing is left of a query after cleaning.
var ErrEmptyQuery = errors.New("query is empty")

// ScoredMatch is an article returned by retrieval for one query.
type ScoredMatch struct {
	Article corpus.Article
	// Raw is the cosine similarity from the vector index.
	Raw float64
	// Weighted is Raw plus the bounded rule-based boost, capped at 1.
	Weighted float64
}

// AnswerRequest is one user query.
type AnswerRequest struct {
	Query string `json:"query"`
	// SessionID continues an existing conversation. Empty starts a new one.
	SessionID string `json:"session_id,omitempty"`
}

// AnswerResponse is the answer to a query.
type AnswerResponse struct {
	Response string `json:"response"`
	// Similarity is the best weighted similarity behind the answer, in [0, 1].
	Similarity float64 `json:"similarity"`
	// UsedKnowledgeBase reports whether the answer came from or was grounded on the corpus.
	UsedKnowledgeBase bool   `json:"used_knowledge_base"`
	Route             Route  `json:"route"`
	SessionID         string `json:"session_id"`
}

// Stage identifies the step of the query pipeline that failed.
type Stage string

const (
	StageEnrich   Stage = "enrich"
	StageEmbed    Stage = "embed"
	StageSearch   Stage = "search"
	StageResolve  Stage = "resolve"
	StageGenerate Stage = "generate"
)

// QueryError is a failure inside the query pipeline.
type QueryError struct {
	Stage Stage
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
