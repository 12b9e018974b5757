package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"azusena/internal/corpus"
	"azusena/internal/storage/mocks"
)

func TestLocator_Lookup(t *testing.T) {
	publicidad := corpus.Article{
		ID:         106,
		Source:     "Ley 100 de 1993",
		Number:     "106",
		Theme:      "Publicidad",
		Text:       "Las entidades deberán informar sus condiciones de afiliación.",
		Categories: corpus.Optional("publicidad, información"),
		Summary:    corpus.Optional("Regula la publicidad de las entidades."),
	}
	limited := corpus.Article{ID: 7, Source: "Ley 100 de 1993", Number: "7", Theme: "Derechos", Subtheme: corpus.Optional("Afiliados")}
	marker := publicidad
	marker.Source = "null"

	tests := []struct {
		name      string
		setup     func(m *mocks.MockArticleStore)
		number    string
		wantFound bool
		wantErr   bool
		contains  []string
		excludes  []string
	}{
		{
			name: "full article",
			setup: func(m *mocks.MockArticleStore) {
				m.EXPECT().ByNumber(gomock.Any(), "106").Return([]corpus.Article{publicidad}, nil)
			},
			number:    "106",
			wantFound: true,
			contains: []string{
				"**Artículo 106**\n\n**Fuente:** Ley 100 de 1993\n\n**Tema:** Publicidad",
				"**Categorías:** publicidad, información",
				"**Contenido:**\nLas entidades deberán informar",
				"**Resumen:** Regula la publicidad",
			},
			excludes: []string{"**Subtema:**", "No Disponible"},
		},
		{
			name: "article without text",
			setup: func(m *mocks.MockArticleStore) {
				m.EXPECT().ByNumber(gomock.Any(), "7").Return([]corpus.Article{limited}, nil)
			},
			number:    "7",
			wantFound: true,
			contains:  []string{"**Tema:** Derechos", "**Subtema:** Afiliados", "❌ **Texto Completo No Disponible**"},
			excludes:  []string{"**Contenido:**", "**Resumen:**"},
		},
		{
			name: "missing value markers are omitted",
			setup: func(m *mocks.MockArticleStore) {
				m.EXPECT().ByNumber(gomock.Any(), "106").Return([]corpus.Article{marker}, nil)
			},
			number:    "106",
			wantFound: true,
			excludes:  []string{"**Fuente:**", "null"},
		},
		{
			name: "number shared by several sources",
			setup: func(m *mocks.MockArticleStore) {
				other := publicidad
				other.Source = "Decreto 1011 de 2006"
				m.EXPECT().ByNumber(gomock.Any(), "106").Return([]corpus.Article{publicidad, other}, nil)
			},
			number:    "106",
			wantFound: true,
			contains:  []string{"**Fuente:** Ley 100 de 1993", "**También existe un artículo 106 en:** Decreto 1011 de 2006"},
		},
		{
			name: "not found",
			setup: func(m *mocks.MockArticleStore) {
				m.EXPECT().ByNumber(gomock.Any(), "999").Return(nil, nil)
			},
			number:    "999",
			wantFound: false,
			contains:  []string{"No se encontró el artículo 999 en la base de datos.", "El número del artículo es incorrecto."},
		},
		{
			name: "store failure",
			setup: func(m *mocks.MockArticleStore) {
				m.EXPECT().ByNumber(gomock.Any(), "1").Return(nil, errors.New("database is locked"))
			},
			number:    "1",
			wantFound: false,
			wantErr:   true,
			contains:  []string{msgStoreUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockArticleStore(ctrl)
			tt.setup(store)

			text, found, err := NewLocator(store).Lookup(context.Background(), tt.number)
			if (err != nil) != tt.wantErr {
				t.Errorf("Lookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if found != tt.wantFound {
				t.Errorf("Lookup() found = %v, want %v", found, tt.wantFound)
			}
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("Lookup() missing %q:\n%s", want, text)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(text, unwanted) {
					t.Errorf("Lookup() should not contain %q:\n%s", unwanted, text)
				}
			}
		})
	}
}

func TestLocator_NilStore(t *testing.T) {
	text, found, err := NewLocator(nil).Lookup(context.Background(), "1")
	if found || text != msgStoreUnavailable || !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Lookup() = (%q, %v, %v), want unavailable", text, found, err)
	}
}
