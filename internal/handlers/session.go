package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"azusena/internal/service"
)

// SessionHandler ends conversation sessions.
type SessionHandler struct {
	queryService service.QueryService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(queryService service.QueryService) *SessionHandler {
	return &SessionHandler{queryService: queryService}
}

// ServeHTTP handles DELETE /api/v1/sessions/{id}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.queryService.EndSession(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(ctx, w, err, "Failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
