package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_article_store.go -package=mocks azusena/internal/storage ArticleStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"azusena/internal/corpus"
)

// ArticleStore defines the read operations over the article table.
type ArticleStore interface {
	// GetByIDs returns the articles with the given IDs keyed by ID. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]corpus.Article, error)
	// ByNumber returns every article whose number equals number exactly, in corpus order.
	// Articles without text are included.
	ByNumber(ctx context.Context, number string) ([]corpus.Article, error)
	// ByTheme returns articles whose theme contains theme and, when subtheme is
	// not empty, whose subtheme contains subtheme. Matching ignores case.
	ByTheme(ctx context.Context, theme, subtheme string) ([]corpus.Article, error)
	// ByNumberRange returns articles numbered from..to inclusive, ordered by number.
	ByNumberRange(ctx context.Context, from, to, limit int) ([]corpus.Article, error)
	// First returns the n lowest-numbered articles.
	First(ctx context.Context, n int) ([]corpus.Article, error)
	// Count returns the number of indexed and stored articles.
	Count(ctx context.Context) (indexed int, total int, err error)
}

// ArticleRepo provides methods for article operations.
// It implements the ArticleStore interface.
type ArticleRepo struct {
	db *sql.DB
}

// NewArticleRepo creates a new ArticleRepo.
func NewArticleRepo(db *sql.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = "id, source, article_number, theme, subtheme, article_text, categories, explanatory_summary"

const digitsOnly = "(article_number != '' AND article_number NOT GLOB '*[^0-9]*')"

// numericOrder sorts digit-only article numbers numerically, after which any others follow.
const numericOrder = "CASE WHEN " + digitsOnly + " THEN CAST(article_number AS INTEGER) ELSE 9223372036854775807 END, id"

// ReplaceAll swaps the table contents for the given corpus in one transaction.
func (r *ArticleRepo) ReplaceAll(ctx context.Context, c *corpus.Corpus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM articles"); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO articles ("+articleColumns+", has_text) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, a := range c.All() {
		_, err := stmt.ExecContext(ctx,
			a.ID, a.Source, a.Number, a.Theme, nullString(a.Subtheme), a.Text,
			nullString(a.Categories), nullString(a.Summary), a.HasText(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert article %s: %w", a.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit articles: %w", err)
	}
	return nil
}

// GetByIDs returns the articles with the given IDs keyed by ID.
func (r *ArticleRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]corpus.Article, error) {
	out := make(map[int64]corpus.Article, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	articles, err := r.query(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		out[a.ID] = a
	}
	return out, nil
}

// ByNumber returns every article whose number equals number exactly.
func (r *ArticleRepo) ByNumber(ctx context.Context, number string) ([]corpus.Article, error) {
	return r.query(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE article_number = ? ORDER BY id", number)
}

// ByTheme returns articles with text whose theme (and optionally subtheme) contains the given terms.
// SQLite LIKE only folds ASCII, so matching happens here after the scan.
func (r *ArticleRepo) ByTheme(ctx context.Context, theme, subtheme string) ([]corpus.Article, error) {
	articles, err := r.query(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE has_text = 1 ORDER BY id")
	if err != nil {
		return nil, err
	}

	theme = strings.ToLower(strings.TrimSpace(theme))
	subtheme = strings.ToLower(strings.TrimSpace(subtheme))

	var out []corpus.Article
	for _, a := range articles {
		if !strings.Contains(strings.ToLower(a.Theme), theme) {
			continue
		}
		if subtheme != "" && !strings.Contains(strings.ToLower(corpus.Value(a.Subtheme)), subtheme) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ByNumberRange returns articles with text numbered from..to inclusive.
func (r *ArticleRepo) ByNumberRange(ctx context.Context, from, to, limit int) ([]corpus.Article, error) {
	if from > to {
		from, to = to, from
	}
	return r.query(ctx,
		"SELECT "+articleColumns+" FROM articles"+
			" WHERE has_text = 1 AND "+digitsOnly+" AND CAST(article_number AS INTEGER) BETWEEN ? AND ?"+
			" ORDER BY "+numericOrder+" LIMIT ?",
		from, to, limit)
}

// First returns the n lowest-numbered articles with text.
func (r *ArticleRepo) First(ctx context.Context, n int) ([]corpus.Article, error) {
	return r.query(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE has_text = 1 ORDER BY "+numericOrder+" LIMIT ?", n)
}

// Count returns the number of indexed (has text) and stored articles.
func (r *ArticleRepo) Count(ctx context.Context) (int, int, error) {
	var indexed, total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(has_text), 0), COUNT(*) FROM articles").Scan(&indexed, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return indexed, total, nil
}

func (r *ArticleRepo) query(ctx context.Context, query string, args ...any) ([]corpus.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var articles []corpus.Article
	for rows.Next() {
		var (
			a                             corpus.Article
			subtheme, categories, summary sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Source, &a.Number, &a.Theme, &subtheme, &a.Text, &categories, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		a.Subtheme = fromNullString(subtheme)
		a.Categories = fromNullString(categories)
		a.Summary = fromNullString(summary)
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return articles, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
