package rag

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"azusena/internal/corpus"
	"azusena/internal/storage"
)

// newListingStore seeds numbers 1..n: odd numbers are themed "Calidad", even "Pensiones".
func newListingStore(t *testing.T, n int) *storage.ArticleRepo {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "articles.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	c := &corpus.Corpus{}
	for i := 1; i <= n; i++ {
		theme, subtheme := "Pensiones", "Vejez"
		if i%2 == 1 {
			theme, subtheme = "Calidad", ""
		}
		a := article(int64(i), strconv.Itoa(i), theme, subtheme)
		a.Summary = corpus.Optional("Resumen del artículo " + strconv.Itoa(i))
		c.Articles = append(c.Articles, a)
	}
	repo := storage.NewArticleRepo(db)
	if err := repo.ReplaceAll(context.Background(), c); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	return repo
}

func TestLister_Theme(t *testing.T) {
	ctx := context.Background()
	l := NewLister(newListingStore(t, 25))

	text, err := l.Theme(ctx, "calidad", "")
	if err != nil {
		t.Fatalf("Theme() error = %v", err)
	}
	if !strings.HasPrefix(text, "📋 **Artículos sobre CALIDAD:**\n\n• **Art. 1** (Ley 100 de 1993)\n  Resumen del artículo 1\n\n") {
		t.Errorf("Theme() unexpected header:\n%s", text)
	}
	if n := strings.Count(text, "• **Art."); n != 10 {
		t.Errorf("Theme() listed %d articles, want 10", n)
	}
	if !strings.Contains(text, "... y 3 artículos más.") {
		t.Errorf("Theme() missing remainder line:\n%s", text)
	}
	if !strings.HasSuffix(text, "¿Necesitas información más detallada de algún artículo específico?") {
		t.Errorf("Theme() missing closing question:\n%s", text)
	}

	text, err = l.Theme(ctx, "pensiones", "vejez")
	if err != nil {
		t.Fatalf("Theme() error = %v", err)
	}
	if !strings.Contains(text, "• **Art. 2** (Ley 100 de 1993) - *Vejez*") {
		t.Errorf("Theme() with subtheme:\n%s", text)
	}

	text, err = l.Theme(ctx, "pensiones", "invalidez")
	if err != nil {
		t.Fatalf("Theme() error = %v", err)
	}
	if text != "No se encontraron artículos para el tema 'pensiones' y subtema invalidez." {
		t.Errorf("Theme() empty = %q", text)
	}
}

func TestLister_ThemeSingleRemainder(t *testing.T) {
	text, err := NewLister(newListingStore(t, 22)).Theme(context.Background(), "calidad", "")
	if err != nil {
		t.Fatalf("Theme() error = %v", err)
	}
	if !strings.Contains(text, "... y 1 artículo más.") {
		t.Errorf("Theme() remainder:\n%s", text)
	}
}

func TestLister_FirstAndRange(t *testing.T) {
	ctx := context.Background()
	l := NewLister(newListingStore(t, 25))

	tests := []struct {
		name       string
		list       func() (string, error)
		wantHeader string
		wantCount  int
		wantCapped bool
	}{
		{
			name:       "first three",
			list:       func() (string, error) { return l.First(ctx, 3) },
			wantHeader: "📋 **Primeros 3 artículos:**",
			wantCount:  3,
		},
		{
			name:       "first n is capped",
			list:       func() (string, error) { return l.First(ctx, 30) },
			wantHeader: "📋 **Primeros 20 artículos:**",
			wantCount:  20,
			wantCapped: true,
		},
		{
			name:       "range",
			list:       func() (string, error) { return l.Range(ctx, 12, 5) },
			wantHeader: "📋 **Artículos del 5 al 12:**",
			wantCount:  8,
		},
		{
			name:       "range is capped",
			list:       func() (string, error) { return l.Range(ctx, 1, 25) },
			wantHeader: "📋 **Artículos del 1 al 25:**",
			wantCount:  20,
			wantCapped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := tt.list()
			if err != nil {
				t.Fatalf("list error = %v", err)
			}
			if !strings.HasPrefix(text, tt.wantHeader) {
				t.Errorf("header = %q, want prefix %q", strings.SplitN(text, "\n", 2)[0], tt.wantHeader)
			}
			if n := strings.Count(text, "**ARTÍCULO "); n != tt.wantCount {
				t.Errorf("listed %d articles, want %d", n, tt.wantCount)
			}
			if capped := strings.Contains(text, "Se muestran solo los primeros 20 artículos."); capped != tt.wantCapped {
				t.Errorf("capped note = %v, want %v", capped, tt.wantCapped)
			}
		})
	}
}

func TestLister_EmptyRange(t *testing.T) {
	text, err := NewLister(newListingStore(t, 3)).Range(context.Background(), 100, 200)
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if text != "No se encontraron artículos en ese rango." {
		t.Errorf("Range() = %q", text)
	}
}
