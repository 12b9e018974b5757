package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// IndexStateRepo persists the single row describing the current vector index build.
type IndexStateRepo struct {
	db *sql.DB
}

// NewIndexStateRepo creates a new IndexStateRepo.
func NewIndexStateRepo(db *sql.DB) *IndexStateRepo {
	return &IndexStateRepo{db: db}
}

// Get returns the recorded index state. Returns ErrNotFound if no build was recorded.
func (r *IndexStateRepo) Get(ctx context.Context) (*IndexState, error) {
	var s IndexState
	err := r.db.QueryRowContext(ctx,
		"SELECT corpus_hash, backend, embedding_model, vector_count, built_at FROM index_state WHERE id = 1",
	).Scan(&s.CorpusHash, &s.Backend, &s.EmbeddingModel, &s.VectorCount, &s.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index state: %w", err)
	}
	return &s, nil
}

// Put records a completed index build, replacing any previous state.
func (r *IndexStateRepo) Put(ctx context.Context, s *IndexState) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO index_state (id, corpus_hash, backend, embedding_model, vector_count, built_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   corpus_hash = excluded.corpus_hash,
		   backend = excluded.backend,
		   embedding_model = excluded.embedding_model,
		   vector_count = excluded.vector_count,
		   built_at = excluded.built_at`,
		s.CorpusHash, s.Backend, s.EmbeddingModel, s.VectorCount, s.BuiltAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put index state: %w", err)
	}
	return nil
}

// Clear forgets the recorded build.
func (r *IndexStateRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM index_state"); err != nil {
		return fmt.Errorf("failed to clear index state: %w", err)
	}
	return nil
}
