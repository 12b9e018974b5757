package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"azusena/internal/contextutil"
	"azusena/internal/indexer"
)

// SyncFunc reloads the corpus and rebuilds the index. force skips reuse
// of an index built from the same corpus.
type SyncFunc func(ctx context.Context, force bool) (*indexer.IndexStats, error)

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	sync    SyncFunc
	running atomic.Bool
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(sync SyncFunc) *IndexHandler {
	return &IndexHandler{sync: sync}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP handles HTTP requests for triggering re-indexing.
// Only one build runs at a time; a second request answers 409.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	if !h.running.CompareAndSwap(false, true) {
		logger.WarnContext(ctx, "re-indexing already running")
		writeError(w, http.StatusConflict, "Indexing already in progress")
		return
	}
	logger.InfoContext(ctx, "re-indexing triggered via API", "force", force)

	// Background context so indexing continues after the response is sent
	go func() {
		defer h.running.Store(false)
		indexCtx := contextutil.WithLogger(context.Background(), logger)
		stats, err := h.sync(indexCtx, force)
		if err != nil {
			logger.ErrorContext(indexCtx, "re-indexing completed with errors", "error", err)
			return
		}
		logger.InfoContext(indexCtx, "re-indexing completed successfully",
			"articles", stats.ArticlesIndexed,
			"reused", stats.Reused,
		)
	}()

	message := "Indexing started. Check server logs for progress."
	if force {
		message = "Full re-indexing started. Check server logs for progress."
	}
	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
		Message: message,
		Status:  "accepted",
	})
}
