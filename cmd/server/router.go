package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tmarkell/scribe-api/internal/api"
	apiMiddleware "github.com/tmarkell/scribe-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	processHandler := api.NewProcessHandler(
		app.submissionService,
		app.reconcilerService,
		app.config.Server.MaxUploadBytes,
		app.logger,
	)

	r.Route("/process", func(r chi.Router) {
		// Engine reachability is public; everything else requires a caller.
		r.Get("/health", processHandler.Health)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/", processHandler.SubmitFile)
			r.Post("/text", processHandler.SubmitText)
			r.Get("/pending", processHandler.Pending)
			r.Get("/{taskId}/status", processHandler.Status)
		})
	})

	// Liveness probe for the server process itself
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
