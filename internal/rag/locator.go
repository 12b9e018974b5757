package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"azusena/internal/contextutil"
	"azusena/internal/corpus"
	"azusena/internal/storage"
)

const msgStoreUnavailable = "La base de datos no está disponible."

// ErrStoreUnavailable is returned by lookups when the record store is missing.
var ErrStoreUnavailable = errors.New("article store unavailable")

// Locator answers exact article-number lookups straight from the record store.
type Locator struct {
	store storage.ArticleStore
}

// NewLocator creates a Locator. A nil store answers every lookup as unavailable.
func NewLocator(store storage.ArticleStore) *Locator {
	return &Locator{store: store}
}

// Lookup returns the structured answer for an article number and whether the
// article exists. When several sources share the number the first in corpus
// order is shown and the others are named. A store failure still returns the
// unavailable message along with the error.
func (l *Locator) Lookup(ctx context.Context, number string) (string, bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if l.store == nil {
		return msgStoreUnavailable, false, ErrStoreUnavailable
	}
	articles, err := l.store.ByNumber(ctx, number)
	if err != nil {
		logger.ErrorContext(ctx, "failed to look up article", "article_number", number, "error", err)
		return msgStoreUnavailable, false, fmt.Errorf("failed to look up article %s: %w", number, err)
	}
	if len(articles) == 0 {
		logger.InfoContext(ctx, "article not found", "article_number", number)
		return notFound(number), false, nil
	}

	a := articles[0]
	parts := []string{fmt.Sprintf("**Artículo %s**", number)}
	parts = appendField(parts, "**Fuente:** ", &a.Source)
	parts = appendField(parts, "**Tema:** ", &a.Theme)
	parts = appendField(parts, "**Subtema:** ", a.Subtheme)
	if a.HasText() {
		parts = appendField(parts, "**Categorías:** ", a.Categories)
		parts = append(parts, "**Contenido:**\n"+a.Text)
	} else {
		parts = append(parts,
			"❌ **Texto Completo No Disponible**",
			"Este artículo está registrado en la base de datos, pero su texto completo no está disponible. La información mostrada es limitada.",
		)
	}
	parts = appendField(parts, "**Resumen:** ", a.Summary)

	if len(articles) > 1 {
		others := make([]string, 0, len(articles)-1)
		for _, other := range articles[1:] {
			others = append(others, other.Source)
		}
		parts = append(parts, "**También existe un artículo "+number+" en:** "+strings.Join(others, "; "))
	}
	return strings.Join(parts, "\n\n"), true, nil
}

// appendField adds label+value when the value is present and not a missing-value marker.
func appendField(parts []string, label string, value *string) []string {
	if v := corpus.Optional(corpus.Value(value)); v != nil {
		return append(parts, label+*v)
	}
	return parts
}

func notFound(number string) string {
	return fmt.Sprintf("No se encontró el artículo %s en la base de datos.", number) +
		"\n\nEsto puede deberse a que:" +
		"\n• El número del artículo es incorrecto." +
		"\n• El artículo no está incluido en la base de conocimiento." +
		"\n• La norma consultada no contiene ese artículo." +
		"\n\nVerifica el número o pregúntame por el tema que te interesa."
}
