package rag

import (
	"context"
	"fmt"
	"strings"

	"azusena/internal/corpus"
	"azusena/internal/storage"
)

const (
	maxThemeRows      = 10
	maxListedArticles = 20
	defaultListCount  = 10
)

// Lister renders article listings by theme or by position.
type Lister struct {
	store storage.ArticleStore
}

// NewLister creates a Lister.
func NewLister(store storage.ArticleStore) *Lister {
	return &Lister{store: store}
}

// Theme lists up to ten articles whose theme (and subtheme, when given)
// contains the given text, ignoring case.
func (l *Lister) Theme(ctx context.Context, theme, subtheme string) (string, error) {
	if l.store == nil {
		return msgStoreUnavailable, nil
	}
	articles, err := l.store.ByTheme(ctx, theme, subtheme)
	if err != nil {
		return "", fmt.Errorf("failed to list theme articles: %w", err)
	}
	if len(articles) == 0 {
		msg := fmt.Sprintf("No se encontraron artículos para el tema '%s'", theme)
		if subtheme != "" {
			msg += fmt.Sprintf(" y subtema %s", subtheme)
		}
		return msg + ".", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Artículos sobre %s:**\n\n", strings.ToUpper(theme))
	for _, a := range articles[:min(len(articles), maxThemeRows)] {
		fmt.Fprintf(&b, "• **Art. %s** (%s)", a.Number, a.Source)
		if sub := corpus.Value(a.Subtheme); sub != "" {
			fmt.Fprintf(&b, " - *%s*", sub)
		}
		if summary := corpus.Value(a.Summary); summary != "" {
			b.WriteString("\n  " + summary)
		}
		b.WriteString("\n\n")
	}
	if rest := len(articles) - maxThemeRows; rest > 0 {
		plural := ""
		if rest > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "... y %d artículo%s más.\n\n", rest, plural)
	}
	b.WriteString("¿Necesitas información más detallada de algún artículo específico?")
	return b.String(), nil
}

// First lists the n lowest-numbered articles, at most twenty.
func (l *Lister) First(ctx context.Context, n int) (string, error) {
	if n <= 0 {
		n = defaultListCount
	}
	shown := min(n, maxListedArticles)
	if l.store == nil {
		return msgStoreUnavailable, nil
	}
	articles, err := l.store.First(ctx, shown)
	if err != nil {
		return "", fmt.Errorf("failed to list first articles: %w", err)
	}
	header := fmt.Sprintf("📋 **Primeros %d artículos:**\n\n", len(articles))
	return renderListing(header, articles, n > maxListedArticles), nil
}

// Range lists the articles numbered from..to inclusive, at most twenty.
func (l *Lister) Range(ctx context.Context, from, to int) (string, error) {
	if from > to {
		from, to = to, from
	}
	if l.store == nil {
		return msgStoreUnavailable, nil
	}
	articles, err := l.store.ByNumberRange(ctx, from, to, maxListedArticles+1)
	if err != nil {
		return "", fmt.Errorf("failed to list article range: %w", err)
	}
	capped := len(articles) > maxListedArticles
	if capped {
		articles = articles[:maxListedArticles]
	}
	header := fmt.Sprintf("📋 **Artículos del %d al %d:**\n\n", from, to)
	return renderListing(header, articles, capped), nil
}

func renderListing(header string, articles []corpus.Article, capped bool) string {
	if len(articles) == 0 {
		return "No se encontraron artículos en ese rango."
	}

	var b strings.Builder
	b.WriteString(header)
	for _, a := range articles {
		fmt.Fprintf(&b, "**ARTÍCULO %s** (%s)\n%s\n\n", a.Number, a.Source, truncate(a.Text, maxExcerptRunes))
	}
	if capped {
		fmt.Fprintf(&b, "Se muestran solo los primeros %d artículos.\n\n", maxListedArticles)
	}
	b.WriteString("💡 Para leer un artículo completo, pregúntame por su número.")
	return b.String()
}
