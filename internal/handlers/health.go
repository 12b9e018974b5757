package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"azusena/internal/contextutil"
)

// VectorCounter reports the size of the vector index.
type VectorCounter interface {
	Count(ctx context.Context) (int, error)
}

// Pinger checks that the generative backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectors            VectorCounter
	llm                Pinger
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. llm may be nil.
func NewHealthHandler(vectors VectorCounter, llm Pinger) *HealthHandler {
	return &HealthHandler{
		vectors:            vectors,
		llm:                llm,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if healthy, 503 Service Unavailable if degraded or unhealthy.
// The LLM backend is only pinged with ?deep=true.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is degraded or unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status := "healthy"

	count, ok := h.checkVectorStore(checkCtx, logger)
	switch {
	case !ok:
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
		status = "unhealthy"
	case count == 0:
		checks["vector_store"] = "empty"
		issues = append(issues, "vector_index_empty")
		status = "degraded"
	default:
		checks["vector_store"] = "ok"
		checks["vectors"] = strconv.Itoa(count)
	}

	deep, _ := strconv.ParseBool(r.URL.Query().Get("deep"))
	if deep && h.llm != nil {
		if err := h.llm.Ping(checkCtx); err != nil {
			logger.WarnContext(ctx, "llm health check failed", "error", err)
			checks["llm"] = "error"
			issues = append(issues, "llm_unavailable")
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["llm"] = "ok"
		}
	}

	httpStatus := http.StatusOK
	if status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

// checkVectorStore returns the vector count and whether the store answered.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) (int, bool) {
	count, err := h.vectors.Count(ctx)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return 0, false
	}
	return count, true
}
