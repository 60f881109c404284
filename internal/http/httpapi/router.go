package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imagerelay/internal/http/handlers"
	"imagerelay/internal/infra"
	"imagerelay/internal/middleware"
	"imagerelay/internal/storage"
)

// Options configures the router beyond the handlers themselves.
type Options struct {
	Logger      infra.Logger
	MediaRoot   string
	CORSOrigins []string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/health", app.Health)
	r.Get("/v1/healthz", app.Health)
	r.Get("/features", app.ListFeatures)

	r.Post("/generate/{feature}", app.GenerateUpload)
	r.Post("/v1/generate/{feature}", app.GenerateJSON)

	if opts.MediaRoot != "" {
		media := http.StripPrefix(storage.MediaPrefix, http.FileServer(http.Dir(opts.MediaRoot)))
		r.Get(storage.MediaPrefix+"*", func(w http.ResponseWriter, req *http.Request) {
			if strings.HasSuffix(req.URL.Path, "/") {
				http.NotFound(w, req)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=86400")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			media.ServeHTTP(w, req)
		})
	}

	return r
}
