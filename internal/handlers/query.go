package handlers

import (
	"encoding/json"
	"net/http"

	"azusena/internal/contextutil"
	"azusena/internal/service"
)

// QueryHandler handles HTTP requests for corpus queries.
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// QueryRequest represents the HTTP request payload for a query.
//
// swagger:model QueryRequest
type QueryRequest struct {
	// The user query
	//
	// example: ¿Qué dice el artículo 10?
	Query string `json:"query"`

	// Legacy name of query, used when query is empty
	QueryText string `json:"query_text,omitempty"`

	// Conversation session; a new one is created when empty or unknown
	SessionID string `json:"session_id,omitempty"`

	// Response format: "markdown" (default) or "html"
	Format string `json:"format,omitempty"`
}

// QueryResponse represents the HTTP response payload for a query.
//
// swagger:model QueryResponse
type QueryResponse struct {
	// Markdown answer
	Response string `json:"response"`

	// Similarity of the best supporting article, 0 for generated answers
	Similarity float64 `json:"similarity"`

	// Whether the answer comes from the article corpus
	UsedKnowledgeBase bool `json:"used_knowledge_base"`

	// Conversation session to send with the next query
	SessionID string `json:"session_id"`

	// Path that produced the answer
	Route string `json:"route"`

	// HTML rendering of response, only with format "html"
	ResponseHTML string `json:"response_html,omitempty"`
}

// ServeHTTP handles HTTP requests for queries.
//
// swagger:route POST /api/v1/query query askQuery
//
// # Ask a question about the article corpus
//
// Explicit article numbers are answered by exact lookup. Other queries are
// answered from the best matching articles or by the generative model.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer
//	  schema:
//	    "$ref": "#/definitions/QueryResponse"
//	'400':
//	  description: Empty query or unsupported format
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		req.Query = req.QueryText
	}

	svcResp, err := h.queryService.Query(ctx, service.QueryRequest{
		Query:     req.Query,
		SessionID: req.SessionID,
		Format:    req.Format,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process query")
		return
	}

	writeJSON(ctx, w, http.StatusOK, toQueryResponse(svcResp))
}

func toQueryResponse(r service.QueryResponse) QueryResponse {
	return QueryResponse{
		Response:          r.Response,
		Similarity:        r.Similarity,
		UsedKnowledgeBase: r.UsedKnowledgeBase,
		SessionID:         r.SessionID,
		Route:             r.Route,
		ResponseHTML:      r.ResponseHTML,
	}
}
