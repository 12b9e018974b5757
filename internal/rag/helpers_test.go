package rag

import (
	"io"
	"log/slog"

	"azusena/internal/corpus"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const longText = "El Sistema Obligatorio de Garantía de Calidad de Atención en Salud establece las condiciones mínimas."

// article builds a record with text long enough to pass validation.
func article(id int64, number, theme, subtheme string) corpus.Article {
	return corpus.Article{
		ID:       id,
		Source:   "Ley 100 de 1993",
		Number:   number,
		Theme:    theme,
		Subtheme: corpus.Optional(subtheme),
		Text:     longText,
	}
}

func match(a corpus.Article, weighted float64) ScoredMatch {
	return ScoredMatch{Article: a, Raw: weighted, Weighted: weighted}
}
