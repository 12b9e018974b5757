// Package app assembles the AzuSENA components from a Config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"azusena/internal/config"
	"azusena/internal/contextutil"
	"azusena/internal/conversation"
	"azusena/internal/corpus"
	"azusena/internal/indexer"
	"azusena/internal/llm"
	"azusena/internal/policy"
	"azusena/internal/rag"
	"azusena/internal/storage"
	"azusena/internal/vectorstore"
)

// LLM is a generation backend that can be health checked.
type LLM interface {
	Generate(ctx context.Context, system, contextText, user string) (string, error)
	Ping(ctx context.Context) error
}

// App holds the wired components.
type App struct {
	Config   *config.Config
	Policy   *policy.Policy
	DB       *sql.DB
	Articles *storage.ArticleRepo
	States   *storage.IndexStateRepo
	Vectors  vectorstore.VectorStore
	Pipeline *indexer.Pipeline
	Index    *indexer.Index
	LLM      LLM
	Sessions *conversation.Manager
	Engine   rag.Engine

	closers []io.Closer
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// New opens storage, the vector backend and the model clients. The index is
// not built; call Sync before answering queries.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)

	p, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Policy: p}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db)
	if err := storage.Migrate(db); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	a.Articles = storage.NewArticleRepo(db)
	a.States = storage.NewIndexStateRepo(db)

	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		qdrant, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.Vectors = qdrant
		a.closers = append(a.closers, qdrant)
	default:
		a.Vectors = vectorstore.NewFlatStore()
	}
	logger.InfoContext(ctx, "vector store ready", "backend", cfg.VectorBackend)

	opts := llm.Options{
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
		RateLimit:  cfg.LLMRateLimit,
	}
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize, opts)

	gate := indexer.NewGate()
	a.Pipeline = indexer.NewPipeline(a.Articles, a.States, embedder, a.Vectors, indexer.PipelineConfig{
		Backend:        cfg.VectorBackend,
		EmbeddingModel: cfg.EmbeddingModelName,
		Policy:         cfg.IndexPolicy,
		IndexPath:      cfg.IndexPath,
		Gate:           gate,
	})
	a.Index = indexer.NewIndex(embedder, a.Vectors, gate)

	switch cfg.LLMProvider {
	case config.LLMProviderOllama:
		a.LLM = llm.NewOllamaClient(cfg.LLMBaseURL, cfg.LLMModelName, opts)
	default:
		a.LLM = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, opts)
	}
	logger.DebugContext(ctx, "LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)

	a.Sessions = conversation.NewManager(p.MaxHistory, cfg.SessionTTL)
	a.Engine = rag.NewEngine(a.Index, a.Articles, a.LLM, a.Sessions, p)
	return a, nil
}

// modelEnsurer is implemented by generation backends that can fetch their model.
type modelEnsurer interface {
	EnsureModel(ctx context.Context) error
}

// EnsureModel makes the generation model available when the backend supports
// fetching it. Other backends are left alone.
func (a *App) EnsureModel(ctx context.Context) error {
	m, ok := a.LLM.(modelEnsurer)
	if !ok {
		return nil
	}
	if err := m.EnsureModel(ctx); err != nil {
		return fmt.Errorf("failed to prepare model %s: %w", a.Config.LLMModelName, err)
	}
	return nil
}

// LoadArticles reloads the corpus file into the article store without
// touching the vector index. Exact lookups and theme listings need only this.
func (a *App) LoadArticles(ctx context.Context) (*corpus.Corpus, error) {
	c, err := a.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Articles.ReplaceAll(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to store articles: %w", err)
	}
	return c, nil
}

// Sync reloads the corpus file and brings the store and index up to date.
// force rebuilds the index even when the corpus is unchanged.
func (a *App) Sync(ctx context.Context, force bool) (*indexer.IndexStats, error) {
	c, err := a.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	if force {
		return a.Pipeline.Rebuild(ctx, c)
	}
	return a.Pipeline.Sync(ctx, c)
}

func (a *App) loadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	c, err := corpus.Load(a.Config.CorpusPath)
	if err != nil {
		return nil, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "corpus loaded",
		"path", a.Config.CorpusPath,
		"articles", len(c.Articles),
		"incomplete", len(c.Incomplete),
	)
	return c, nil
}

// Close releases the database and vector store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
