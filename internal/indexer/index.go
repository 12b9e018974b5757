package indexer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"azusena/internal/vectorstore"
)

// ErrEmbedding marks failures of the embedding backend during Search.
var ErrEmbedding = errors.New("embedding failed")

// Index answers nearest-neighbour queries over the article vectors.
type Index struct {
	embedder Embedder
	store    vectorstore.VectorStore
	gate     *Gate
}

// NewIndex creates an Index over store, embedding queries with embedder.
// gate is shared with the Pipeline that rebuilds store; it may be nil.
func NewIndex(embedder Embedder, store vectorstore.VectorStore, gate *Gate) *Index {
	return &Index{embedder: embedder, store: store, gate: gate}
}

// View runs fn while the index cannot be swapped. Searches made inside fn
// and the article lookups that resolve them see the same build.
func (i *Index) View(fn func() error) error {
	return i.gate.Read(fn)
}

// Search embeds text and returns up to k articles ordered by descending similarity.
func (i *Index) Search(ctx context.Context, text string, k int) ([]Hit, error) {
	vectors, err := i.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w: %w", ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	results, err := i.store.Search(ctx, normalize(vectors[0]), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		id, ok := articleID(r.Meta)
		if !ok {
			continue
		}
		hits = append(hits, Hit{ArticleID: id, Score: float64(r.Score)})
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (i *Index) Count(ctx context.Context) (int, error) {
	return i.store.Count(ctx)
}

// pointID derives a stable UUID for an article so rebuilds overwrite in place.
func pointID(articleID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("article:%d", articleID))).String()
}

// articleID reads the article id back from a point payload. JSON round trips
// turn it into float64 and Qdrant returns int64.
func articleID(meta map[string]any) (int64, bool) {
	switch v := meta["article_id"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// normalize scales vec to unit length so inner product equals cosine similarity.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		copy(out, vec)
		return out
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
