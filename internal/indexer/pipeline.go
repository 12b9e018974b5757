package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"azusena/internal/config"
	"azusena/internal/contextutil"
	"azusena/internal/corpus"
	"azusena/internal/storage"
	"azusena/internal/vectorstore"
)

// Pipeline loads a corpus into SQLite and the vector store.
type Pipeline struct {
	articles    ArticleWriter
	states      StateStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	backend     string
	model       string
	policy      string
	indexPath   string
	batchSize   int
	gate        *Gate
}

// PipelineConfig holds the build settings of a Pipeline.
type PipelineConfig struct {
	// Backend is recorded with the index state ("flat" or "qdrant").
	Backend string
	// EmbeddingModel is recorded with the index state.
	EmbeddingModel string
	// Policy is config.IndexPolicyRebuild or config.IndexPolicyHash.
	Policy string
	// IndexPath is where a Persister vector store is saved.
	IndexPath string
	BatchSize int
	// Gate is shared with the Index serving queries; it may be nil.
	Gate *Gate
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	articles ArticleWriter,
	states StateStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Policy == "" {
		cfg.Policy = config.IndexPolicyRebuild
	}
	return &Pipeline{
		articles:    articles,
		states:      states,
		embedder:    embedder,
		vectorStore: vectorStore,
		backend:     cfg.Backend,
		model:       cfg.EmbeddingModel,
		policy:      cfg.Policy,
		indexPath:   cfg.IndexPath,
		batchSize:   cfg.BatchSize,
		gate:        cfg.Gate,
	}
}

// Sync stores every corpus row and makes the vector index match the
// articles with text. Under the hash policy an index built from the same
// corpus and embedding model is reused instead of rebuilt.
//
// A new index is built aside and swapped in together with the article rows,
// so a failed build leaves the served index, articles and state untouched.
func (p *Pipeline) Sync(ctx context.Context, c *corpus.Corpus) (*IndexStats, error) {
	return p.sync(ctx, c, p.policy == config.IndexPolicyHash)
}

// Rebuild is Sync that always re-embeds the corpus.
func (p *Pipeline) Rebuild(ctx context.Context, c *corpus.Corpus) (*IndexStats, error) {
	return p.sync(ctx, c, false)
}

func (p *Pipeline) sync(ctx context.Context, c *corpus.Corpus, allowReuse bool) (*IndexStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	stats := ComputeIndexStats(c, p.model)
	hash := stats.CorpusHash

	if allowReuse {
		reused, err := p.reuse(ctx, c, hash)
		if err != nil {
			logger.WarnContext(ctx, "stored index unusable, rebuilding", "error", err)
		}
		if reused {
			stats.Reused = true
			logger.InfoContext(ctx, "reusing vector index", "corpus_hash", hash, "vectors", stats.ArticlesIndexed)
			return stats, nil
		}
	}

	staged, err := p.build(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := p.swap(ctx, c, staged, hash); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "vector index built",
		"backend", p.backend,
		"articles", stats.ArticlesIndexed,
		"incomplete", stats.ArticlesIncomplete,
		"index_version", stats.IndexVersion,
	)
	return stats, nil
}

// reuse reports whether the existing index matches hash. When it does the
// article rows are stored and a persisted index is promoted.
func (p *Pipeline) reuse(ctx context.Context, c *corpus.Corpus, hash string) (bool, error) {
	state, err := p.states.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if state.CorpusHash != hash || state.Backend != p.backend || state.EmbeddingModel != p.model {
		return false, nil
	}

	served := p.vectorStore
	var loaded vectorstore.VectorStore
	if persister, ok := p.vectorStore.(Persister); ok {
		loaded, err = persister.LoadStaged(p.indexPath)
		if err != nil {
			return false, fmt.Errorf("failed to load index file: %w", err)
		}
		served = loaded
	}

	count, err := served.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count vectors: %w", err)
	}
	if count != state.VectorCount {
		return false, nil
	}

	err = p.gate.Write(func() error {
		if err := p.articles.ReplaceAll(ctx, c); err != nil {
			return fmt.Errorf("failed to store articles: %w", err)
		}
		if loaded != nil {
			if err := p.vectorStore.Promote(ctx, loaded); err != nil {
				return fmt.Errorf("failed to promote vector index: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// build embeds every article into a staged store. It returns a nil store for
// a corpus without articles. A failed build discards what it staged.
func (p *Pipeline) build(ctx context.Context, c *corpus.Corpus) (staged vectorstore.VectorStore, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(c.Articles) == 0 {
		logger.WarnContext(ctx, "corpus has no articles with text, vector index left empty")
		return nil, nil
	}

	defer func() {
		if err != nil && staged != nil {
			p.discard(ctx, staged)
			staged = nil
		}
	}()

	logger.InfoContext(ctx, "starting indexing", "articles", len(c.Articles), "batch_size", p.batchSize)

	for start := 0; start < len(c.Articles); start += p.batchSize {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return staged, ctx.Err()
		default:
		}

		end := min(start+p.batchSize, len(c.Articles))
		batch := c.Articles[start:end]

		texts := make([]string, len(batch))
		for i, a := range batch {
			texts[i] = a.CompositeText()
		}

		embeddings, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return staged, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(embeddings) != len(batch) {
			return staged, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		if staged == nil {
			staged, err = p.vectorStore.Stage(ctx, len(embeddings[0]))
			if err != nil {
				return nil, fmt.Errorf("failed to stage vector store: %w", err)
			}
		}

		points := make([]vectorstore.Point, len(batch))
		for i, a := range batch {
			points[i] = vectorstore.Point{
				ID:  pointID(a.ID),
				Vec: normalize(embeddings[i]),
				Meta: map[string]any{
					"article_id":     a.ID,
					"article_number": a.Number,
					"source":         a.Source,
					"theme":          a.Theme,
				},
			}
		}

		if err := staged.Upsert(ctx, points); err != nil {
			return staged, fmt.Errorf("failed to upsert vectors: %w", err)
		}
		logger.DebugContext(ctx, "indexed batch", "from", start, "to", end)
	}

	if persister, ok := staged.(Persister); ok && p.indexPath != "" {
		if err := persister.Save(p.indexPath); err != nil {
			return staged, fmt.Errorf("failed to save index file: %w", err)
		}
	}
	return staged, nil
}

// swap stores the article rows, promotes staged and records the index state
// while no query can read either.
func (p *Pipeline) swap(ctx context.Context, c *corpus.Corpus, staged vectorstore.VectorStore, hash string) error {
	count := 0
	if staged != nil {
		n, err := staged.Count(ctx)
		if err != nil {
			p.discard(ctx, staged)
			return fmt.Errorf("failed to count vectors: %w", err)
		}
		count = n
	}

	return p.gate.Write(func() error {
		if err := p.articles.ReplaceAll(ctx, c); err != nil {
			if staged != nil {
				p.discard(ctx, staged)
			}
			return fmt.Errorf("failed to store articles: %w", err)
		}

		if err := p.vectorStore.Promote(ctx, staged); err != nil {
			// The rows no longer match the served vectors; force the next sync to rebuild.
			if cerr := p.states.Clear(ctx); cerr != nil {
				contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to clear index state", "error", cerr)
			}
			if staged != nil {
				p.discard(ctx, staged)
			}
			return fmt.Errorf("failed to promote vector index: %w", err)
		}

		if staged == nil {
			if err := p.states.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear index state: %w", err)
			}
			return nil
		}

		err := p.states.Put(ctx, &storage.IndexState{
			CorpusHash:     hash,
			Backend:        p.backend,
			EmbeddingModel: p.model,
			VectorCount:    count,
			BuiltAt:        time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to record index state: %w", err)
		}
		return nil
	})
}

func (p *Pipeline) discard(ctx context.Context, staged vectorstore.VectorStore) {
	if err := p.vectorStore.Discard(context.WithoutCancel(ctx), staged); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to discard staged index", "error", err)
	}
}
