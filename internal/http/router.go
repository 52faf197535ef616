// Package httpapi assembles the export API routes.
package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"imgexport/internal/http/handlers"
	"imgexport/internal/middleware"
)

// Options configure the cross-cutting middleware.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	Limiter     *middleware.Limiter
	Logger      zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/metrics", app.MetricsHandler)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/exports", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(opts.JWTSecret))
		r.Get("/policy", app.Policy)
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(opts.Limiter.Middleware)
			}
			r.Get("/download", app.Download)
			r.Post("/archive", app.Archive)
			r.Get("/copy", app.Copy)
		})
	})

	return r
}
