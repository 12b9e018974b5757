package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks azusena/internal/indexer Embedder

import (
	"context"

	"azusena/internal/corpus"
	"azusena/internal/storage"
	"azusena/internal/vectorstore"
)

// DefaultBatchSize is the number of articles embedded per request.
const DefaultBatchSize = 32

// Embedder turns texts into vectors, one per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is an article returned by vector search.
type Hit struct {
	ArticleID int64
	// Score is the cosine similarity between the query and the article.
	Score float64
}

// ArticleWriter replaces the stored article table.
type ArticleWriter interface {
	ReplaceAll(ctx context.Context, c *corpus.Corpus) error
}

// StateStore records which corpus the vector index was built from.
type StateStore interface {
	Get(ctx context.Context) (*storage.IndexState, error)
	Put(ctx context.Context, s *storage.IndexState) error
	Clear(ctx context.Context) error
}

// Persister is implemented by vector stores that live in a local file.
type Persister interface {
	Save(path string) error
	// LoadStaged reads a saved index into a store that can be promoted.
	LoadStaged(path string) (vectorstore.VectorStore, error)
}
