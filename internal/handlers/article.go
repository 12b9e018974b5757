package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"azusena/internal/service"
)

// ArticleHandler serves exact article lookups.
type ArticleHandler struct {
	queryService service.QueryService
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(queryService service.QueryService) *ArticleHandler {
	return &ArticleHandler{queryService: queryService}
}

// ServeHTTP handles GET /api/v1/articles/{number}.
//
// A missing article answers 404 with the same body shape as a found one,
// so clients can show the explanatory message.
func (h *ArticleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	svcResp, err := h.queryService.Article(ctx, chi.URLParam(r, "number"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeJSON(ctx, w, http.StatusNotFound, toQueryResponse(svcResp))
	case err != nil:
		handleServiceError(ctx, w, err, "Failed to look up article")
	default:
		writeJSON(ctx, w, http.StatusOK, toQueryResponse(svcResp))
	}
}
