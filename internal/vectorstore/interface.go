package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks azusena/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector does not match the store dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// ErrForeignStore is returned when a store is asked to promote a store it did not stage.
var ErrForeignStore = errors.New("staged store belongs to another backend")

// VectorStore defines the interface for vector storage operations.
// Scores are inner products of L2-normalized vectors, so they equal cosine similarity.
//
// A rebuild writes into a store returned by Stage and swaps it in with
// Promote, so Search never observes a partially built index.
type VectorStore interface {
	// Stage returns an empty store for vectors of size dim. Its points are not
	// visible through the receiver until Promote.
	Stage(ctx context.Context, dim int) (VectorStore, error)

	// Promote atomically replaces the served points with those of staged.
	// A nil staged store leaves the index empty.
	Promote(ctx context.Context, staged VectorStore) error

	// Discard releases a staged store that will not be promoted.
	Discard(ctx context.Context, staged VectorStore) error

	// Upsert inserts or updates points.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to k points ordered by descending score.
	// An empty store returns an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)

	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)
}
