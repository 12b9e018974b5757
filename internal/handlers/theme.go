package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"azusena/internal/service"
)

// ThemeHandler lists articles by theme.
type ThemeHandler struct {
	queryService service.QueryService
}

// NewThemeHandler creates a new ThemeHandler.
func NewThemeHandler(queryService service.QueryService) *ThemeHandler {
	return &ThemeHandler{queryService: queryService}
}

// ThemeResponse is the article listing of a theme.
//
// swagger:model ThemeResponse
type ThemeResponse struct {
	Theme    string `json:"theme"`
	Subtheme string `json:"subtheme,omitempty"`
	// Markdown listing
	Response string `json:"response"`
}

// ServeHTTP handles GET /api/v1/themes/{theme}?subtheme=.
func (h *ThemeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	theme := chi.URLParam(r, "theme")
	subtheme := r.URL.Query().Get("subtheme")

	text, err := h.queryService.Theme(ctx, theme, subtheme)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list theme")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ThemeResponse{Theme: theme, Subtheme: subtheme, Response: text})
}
