package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"azusena/internal/contextutil"
)

// ModelLoader makes sure a model is present on an Ollama server, pulling it
// when it is missing.
type ModelLoader struct {
	baseURL string
	client  *http.Client
	// pollInterval and maxAttempts bound the wait for a pulled model to show up.
	pollInterval time.Duration
	maxAttempts  int
}

// NewModelLoader creates a new model loader. Pulls can take minutes, so the
// HTTP client has no timeout of its own and is bounded by the caller's context.
func NewModelLoader(baseURL string) *ModelLoader {
	return &ModelLoader{
		baseURL:      baseURL,
		client:       newHTTPClient(0),
		pollInterval: time.Second,
		maxAttempts:  30,
	}
}

// ShowModelRequest is the /api/show request body.
type ShowModelRequest struct {
	Model string `json:"model"`
}

// PullModelRequest is the /api/pull request body.
type PullModelRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// PullModelResponse is the non-streaming /api/pull response body.
type PullModelResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// IsModelLoaded reports whether the server has the model locally.
func (ml *ModelLoader) IsModelLoaded(ctx context.Context, modelName string) (bool, error) {
	var details json.RawMessage
	err := postJSON(ctx, ml.client, ml.baseURL+"/api/show", "", ShowModelRequest{Model: modelName}, &details)
	if err == nil {
		return true, nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check model status: %w", err)
}

// LoadModel pulls modelName unless it is already present, then waits until
// the server reports it.
func (ml *ModelLoader) LoadModel(ctx context.Context, modelName string) error {
	logger := contextutil.LoggerFromContext(ctx)

	loaded, err := ml.IsModelLoaded(ctx, modelName)
	if err != nil {
		// The pull below reports a real outage; a failed check alone is not fatal.
		logger.WarnContext(ctx, "model status check failed", "model", modelName, "error", err)
	} else if loaded {
		return nil
	}

	logger.InfoContext(ctx, "pulling model", "model", modelName)
	var pullResp PullModelResponse
	if err := postJSON(ctx, ml.client, ml.baseURL+"/api/pull", "", PullModelRequest{Model: modelName}, &pullResp); err != nil {
		return fmt.Errorf("failed to pull model %s: %w", modelName, err)
	}
	if pullResp.Status != "success" {
		return fmt.Errorf("model pull failed: %s", pullResp.Error)
	}

	for i := 0; i < ml.maxAttempts; i++ {
		loaded, err := ml.IsModelLoaded(ctx, modelName)
		if err == nil && loaded {
			logger.InfoContext(ctx, "model ready", "model", modelName)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ml.pollInterval):
		}
	}
	return fmt.Errorf("model %s did not load within timeout period", modelName)
}
