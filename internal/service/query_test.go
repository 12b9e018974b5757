package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"azusena/internal/rag"
	rag_mocks "azusena/internal/rag/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQueryService_Query(t *testing.T) {
	tests := []struct {
		name       string
		req        QueryRequest
		setupMock  func(m *rag_mocks.MockEngine)
		want       QueryResponse
		wantErr    bool
		validation bool
		wantHTML   string
	}{
		{
			name: "answer passes through",
			req:  QueryRequest{Query: "¿Qué dice el artículo 5?", SessionID: "s1"},
			setupMock: func(m *rag_mocks.MockEngine) {
				m.EXPECT().Answer(gomock.Any(), rag.AnswerRequest{Query: "¿Qué dice el artículo 5?", SessionID: "s1"}).
					Return(rag.AnswerResponse{Response: "**Artículo 5**", Similarity: 1, UsedKnowledgeBase: true, Route: rag.RouteArticle, SessionID: "s1"}, nil)
			},
			want: QueryResponse{Response: "**Artículo 5**", Similarity: 1, UsedKnowledgeBase: true, Route: "article", SessionID: "s1"},
		},
		{
			name: "trailing undefined is stripped",
			req:  QueryRequest{Query: "hola"},
			setupMock: func(m *rag_mocks.MockEngine) {
				m.EXPECT().Answer(gomock.Any(), gomock.Any()).
					Return(rag.AnswerResponse{Response: "Hola, soy AzuSENA. undefined\n", Route: rag.RouteGeneration, SessionID: "new"}, nil)
			},
			want: QueryResponse{Response: "Hola, soy AzuSENA.", Route: "generation", SessionID: "new"},
		},
		{
			name: "html format renders markdown",
			req:  QueryRequest{Query: "hola", Format: "HTML"},
			setupMock: func(m *rag_mocks.MockEngine) {
				m.EXPECT().Answer(gomock.Any(), gomock.Any()).
					Return(rag.AnswerResponse{Response: "**Artículo 5**", Route: rag.RouteArticle}, nil)
			},
			want:     QueryResponse{Response: "**Artículo 5**", Route: "article"},
			wantHTML: "<strong>Artículo 5</strong>",
		},
		{
			name:       "blank query",
			req:        QueryRequest{Query: "   "},
			setupMock:  func(m *rag_mocks.MockEngine) {},
			wantErr:    true,
			validation: true,
		},
		{
			name:       "unsupported format",
			req:        QueryRequest{Query: "hola", Format: "pdf"},
			setupMock:  func(m *rag_mocks.MockEngine) {},
			wantErr:    true,
			validation: true,
		},
		{
			name: "query empty after cleaning",
			req:  QueryRequest{Query: "@@@"},
			setupMock: func(m *rag_mocks.MockEngine) {
				m.EXPECT().Answer(gomock.Any(), gomock.Any()).Return(rag.AnswerResponse{}, rag.ErrEmptyQuery)
			},
			wantErr:    true,
			validation: true,
		},
		{
			name: "engine error is wrapped",
			req:  QueryRequest{Query: "hola"},
			setupMock: func(m *rag_mocks.MockEngine) {
				m.EXPECT().Answer(gomock.Any(), gomock.Any()).Return(rag.AnswerResponse{}, errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := rag_mocks.NewMockEngine(ctrl)
			tt.setupMock(engine)

			got, err := NewQueryService(engine).Query(context.Background(), tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Query() expected error, got nil")
				}
				var vErr *ValidationError
				if errors.As(err, &vErr) != tt.validation {
					t.Errorf("Query() error = %v, validation error expected: %v", err, tt.validation)
				}
				return
			}
			if err != nil {
				t.Fatalf("Query() unexpected error: %v", err)
			}

			html := got.ResponseHTML
			got.ResponseHTML = ""
			if got != tt.want {
				t.Errorf("Query() = %+v, want %+v", got, tt.want)
			}
			if tt.wantHTML == "" && html != "" {
				t.Errorf("Query() rendered HTML without being asked: %q", html)
			}
			if !strings.Contains(html, tt.wantHTML) {
				t.Errorf("Query() HTML = %q, want it to contain %q", html, tt.wantHTML)
			}
		})
	}
}

func TestQueryService_Article(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := rag_mocks.NewMockEngine(ctrl)
	svc := NewQueryService(engine)
	ctx := context.Background()

	engine.EXPECT().Article(gomock.Any(), "5").
		Return(rag.AnswerResponse{Response: "**Artículo 5**", Similarity: 1, UsedKnowledgeBase: true, Route: rag.RouteArticle}, nil)
	got, err := svc.Article(ctx, " 5 ")
	if err != nil {
		t.Fatalf("Article() error = %v", err)
	}
	if got.Similarity != 1 || !got.UsedKnowledgeBase {
		t.Errorf("Article() = %+v", got)
	}

	engine.EXPECT().Article(gomock.Any(), "999").
		Return(rag.AnswerResponse{Response: "No encontré el artículo 999", Route: rag.RouteArticle}, nil)
	got, err = svc.Article(ctx, "999")
	if !errors.Is(err, ErrArticleNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("Article(999) error = %v, want ErrArticleNotFound", err)
	}
	if !strings.Contains(got.Response, "999") {
		t.Errorf("Article(999) should keep the not-found message, got %q", got.Response)
	}

	engine.EXPECT().Article(gomock.Any(), "7").
		Return(rag.AnswerResponse{Response: "La base de datos no está disponible.", Route: rag.RouteArticle},
			&rag.QueryError{Stage: rag.StageResolve, Err: errors.New("database is locked")})
	got, err = svc.Article(ctx, "7")
	if !errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNotFound) {
		t.Errorf("Article(7) error = %v, want ErrStoreUnavailable only", err)
	}
	if got.Response != "La base de datos no está disponible." {
		t.Errorf("Article(7) response = %q", got.Response)
	}

	var vErr *ValidationError
	if _, err := svc.Article(ctx, "5a"); !errors.As(err, &vErr) {
		t.Errorf("Article(5a) error = %v, want ValidationError", err)
	}
}

func TestQueryService_Theme(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := rag_mocks.NewMockEngine(ctrl)
	svc := NewQueryService(engine)
	ctx := context.Background()

	engine.EXPECT().Theme(gomock.Any(), "salud", "calidad").Return("📋 listado", nil)
	if got, err := svc.Theme(ctx, " salud ", "calidad "); err != nil || got != "📋 listado" {
		t.Errorf("Theme() = %q, %v", got, err)
	}

	engine.EXPECT().Theme(gomock.Any(), "salud", "").Return("", errors.New("db closed"))
	if _, err := svc.Theme(ctx, "salud", ""); err == nil || !strings.Contains(err.Error(), "db closed") {
		t.Errorf("Theme() error = %v, want wrapped store error", err)
	}

	var vErr *ValidationError
	if _, err := svc.Theme(ctx, " ", ""); !errors.As(err, &vErr) || vErr.Field != "theme" {
		t.Errorf("Theme(blank) error = %v, want ValidationError on theme", err)
	}
}

func TestQueryService_EndSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := rag_mocks.NewMockEngine(ctrl)
	svc := NewQueryService(engine)
	ctx := context.Background()

	engine.EXPECT().EndSession("known").Return(true)
	if err := svc.EndSession(ctx, "known"); err != nil {
		t.Errorf("EndSession(known) error = %v", err)
	}

	engine.EXPECT().EndSession("gone").Return(false)
	if err := svc.EndSession(ctx, "gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("EndSession(gone) error = %v, want ErrSessionNotFound", err)
	}
}

func TestRenderer_Render(t *testing.T) {
	html, err := NewRenderer().Render("## Tema\n\n- **Artículo 1** <script>x</script>")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"<h2>Tema</h2>", "<li><strong>Artículo 1</strong>"} {
		if !strings.Contains(html, want) {
			t.Errorf("Render() = %q, want it to contain %q", html, want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("Render() kept raw HTML: %q", html)
	}
}
