package llm

import (
	"context"
	"fmt"
	"net/http"
)

// OllamaClient generates answers through a local Ollama server.
type OllamaClient struct {
	BaseURL string
	Model   string
	client  *http.Client
	caller  *caller
	loader  *ModelLoader
}

// NewOllamaClient creates a client for the Ollama chat API at baseURL
// (e.g. "http://localhost:11434").
func NewOllamaClient(baseURL, model string, opts Options) *OllamaClient {
	return &OllamaClient{
		BaseURL: baseURL,
		Model:   model,
		client:  newHTTPClient(opts.Timeout),
		caller:  newCaller(opts),
		loader:  NewModelLoader(baseURL),
	}
}

// OllamaChatRequest is the /api/chat request body.
type OllamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  OllamaOptions `json:"options"`
}

// OllamaOptions holds the sampling options understood by Ollama.
type OllamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaChatResponse is the non-streaming /api/chat response body.
type OllamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Generate answers user under the system prompt. A non-empty context is
// sent as an extra system message.
func (c *OllamaClient) Generate(ctx context.Context, system, contextText, user string) (string, error) {
	payload := OllamaChatRequest{
		Model:    c.Model,
		Messages: messages(system, contextText, user),
		Stream:   false,
		Options: OllamaOptions{
			Temperature: DefaultTemperature,
			NumPredict:  DefaultMaxTokens,
		},
	}

	var chatResp OllamaChatResponse
	err := c.caller.do(ctx, "ollama_chat", func(ctx context.Context) error {
		chatResp = OllamaChatResponse{}
		return postJSON(ctx, c.client, c.BaseURL+"/api/chat", "", payload, &chatResp)
	})
	if err != nil {
		return "", err
	}

	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("empty response from model %s", c.Model)
	}
	return chatResp.Message.Content, nil
}

// Ping checks that the Ollama server answers and has the configured model.
func (c *OllamaClient) Ping(ctx context.Context) error {
	if err := get(ctx, c.client, c.BaseURL+"/api/tags", ""); err != nil {
		return err
	}
	loaded, err := c.loader.IsModelLoaded(ctx, c.Model)
	if err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("model %s is not available", c.Model)
	}
	return nil
}

// EnsureModel pulls the configured model when the server does not have it.
func (c *OllamaClient) EnsureModel(ctx context.Context) error {
	return c.loader.LoadModel(ctx, c.Model)
}
