package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"azusena/internal/config"
	"azusena/internal/llm"
	"azusena/internal/rag"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const testCorpusCSV = `source,article_number,theme,subtheme,article_text,categories,explanatory_summary
Ley 100 de 1993,1,Sistema de Seguridad Social,Objeto,El sistema de seguridad social integral tiene por objeto garantizar los derechos irrenunciables de la persona.,principios,Objeto del sistema
Ley 100 de 1993,2,Principios generales,,El servicio público esencial de seguridad social se prestará con sujeción a los principios de eficiencia.,principios,nan
Decreto 1011 de 2006,2,Calidad,Auditoría,El sistema obligatorio de garantía de calidad de la atención de salud.,calidad,
Ley 100 de 1993,3,Derechos,,,,
`

var keywordAxes = []string{"seguridad", "calidad", "salud"}

// fakeOpenAI serves keyword embeddings and a fixed chat reply.
func fakeOpenAI(t *testing.T, chatCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req llm.EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var resp llm.EmbeddingsResponse
		for i, text := range req.Input {
			lower := strings.ToLower(text)
			vec := make([]float64, len(keywordAxes)+1)
			for j, kw := range keywordAxes {
				if strings.Contains(lower, kw) {
					vec[j] = 1
				}
			}
			vec[len(keywordAxes)] = 0.1
			resp.Data = append(resp.Data, llm.EmbeddingData{Index: i, Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		chatCalls.Add(1)
		_ = json.NewEncoder(w).Encode(llm.ChatResponse{
			Choices: []llm.ChatChoice{{Message: llm.ChatChoiceMessage{Role: "assistant", Content: "Hola, soy AzuSENA."}}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "articulos.csv")
	if err := os.WriteFile(corpusPath, []byte(testCorpusCSV), 0o644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}
	return &config.Config{
		LogFormat:          "text",
		CorpusPath:         corpusPath,
		DBPath:             filepath.Join(dir, "azusena.db"),
		VectorBackend:      config.VectorBackendFlat,
		IndexPath:          filepath.Join(dir, "index.bolt"),
		IndexPolicy:        config.IndexPolicyHash,
		EmbeddingBaseURL:   baseURL,
		EmbeddingModelName: "test-embedding",
		LLMProvider:        config.LLMProviderOpenAI,
		LLMBaseURL:         baseURL,
		LLMModelName:       "test-chat",
		LLMTimeout:         5 * time.Second,
	}
}

func TestApp_EndToEnd(t *testing.T) {
	ctx := context.Background()
	var chatCalls atomic.Int32
	srv := fakeOpenAI(t, &chatCalls)

	a, err := New(ctx, testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	stats, err := a.Sync(ctx, false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.ArticlesIndexed != 3 || stats.ArticlesIncomplete != 1 || stats.Reused {
		t.Errorf("first Sync() stats = %+v", stats)
	}

	stats, err = a.Sync(ctx, false)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if !stats.Reused {
		t.Error("second Sync() should reuse the index built from the same corpus")
	}

	stats, err = a.Sync(ctx, true)
	if err != nil {
		t.Fatalf("forced Sync() error = %v", err)
	}
	if stats.Reused {
		t.Error("forced Sync() should rebuild")
	}

	resp, err := a.Engine.Answer(ctx, rag.AnswerRequest{Query: "¿Qué dice el artículo 2?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Route != rag.RouteArticle || !resp.UsedKnowledgeBase || resp.Similarity != 1 {
		t.Errorf("article answer = %+v", resp)
	}
	if !strings.Contains(resp.Response, "Decreto 1011 de 2006") {
		t.Errorf("article answer should mention the other source, got %q", resp.Response)
	}

	resp, err = a.Engine.Answer(ctx, rag.AnswerRequest{Query: "hola, ¿cómo estás?", SessionID: resp.SessionID})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Route != rag.RouteGeneration || resp.Response != "Hola, soy AzuSENA." {
		t.Errorf("generated answer = %+v", resp)
	}
	if n := chatCalls.Load(); n != 1 {
		t.Errorf("chat calls = %d, want 1", n)
	}

	count, err := a.Vectors.Count(ctx)
	if err != nil || count != 3 {
		t.Errorf("vector count = %d, %v, want 3", count, err)
	}
}

func TestApp_SyncMissingCorpus(t *testing.T) {
	var chatCalls atomic.Int32
	cfg := testConfig(t, fakeOpenAI(t, &chatCalls).URL)
	cfg.CorpusPath = filepath.Join(t.TempDir(), "missing.csv")

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	if _, err := a.Sync(context.Background(), false); err == nil {
		t.Error("Sync() with a missing corpus should fail")
	}
}

func TestApp_EnsureModel(t *testing.T) {
	ctx := context.Background()
	var pulled atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			if !pulled.Load() {
				http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		case "/api/pull":
			pulled.Store(true)
			_, _ = w.Write([]byte(`{"status": "success"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.LLMProvider = config.LLMProviderOllama
	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.EnsureModel(ctx); err != nil {
		t.Fatalf("EnsureModel() error = %v", err)
	}
	if !pulled.Load() {
		t.Error("EnsureModel() should pull a missing model")
	}

	openai, err := New(ctx, testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = openai.Close()
	}()
	if err := openai.EnsureModel(ctx); err != nil {
		t.Errorf("EnsureModel() on an OpenAI backend = %v, want nil", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&config.Config{LogFormat: "json", LogLevel: slog.LevelWarn}, &buf).Info("hidden")
	NewLogger(&config.Config{LogFormat: "json", LogLevel: slog.LevelWarn}, &buf).Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("NewLogger() output = %q", out)
	}
}
