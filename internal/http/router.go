package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"azusena/internal/handlers"
	"azusena/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QueryService service.QueryService
	Vectors      handlers.VectorCounter
	// LLM is pinged by deep health checks. Optional.
	LLM handlers.Pinger
	// Sync rebuilds the index for POST /api/v1/index. Optional.
	Sync        handlers.SyncFunc
	CORSOrigins []string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.CORSOrigins))

	queryHandler := handlers.NewQueryHandler(deps.QueryService)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Vectors, deps.LLM))

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/query", queryHandler)
			r.Method(http.MethodGet, "/articles/{number}", handlers.NewArticleHandler(deps.QueryService))
			r.Method(http.MethodGet, "/themes/{theme}", handlers.NewThemeHandler(deps.QueryService))
			r.Method(http.MethodDelete, "/sessions/{id}", handlers.NewSessionHandler(deps.QueryService))
			if deps.Sync != nil {
				r.Method(http.MethodPost, "/index", handlers.NewIndexHandler(deps.Sync))
			}
		})
	})

	// Compatibility alias for existing clients
	r.Method(http.MethodPost, "/query", queryHandler)

	return r
}
