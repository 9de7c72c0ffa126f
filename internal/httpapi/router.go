package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zoomclip/internal/httpapi/handlers"
	"zoomclip/internal/httpkit"
	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/pkg/middleware"
)

type Deps struct {
	Handlers       handlers.Deps
	AllowedOrigins []string
	RequestTimeout time.Duration
	Log            *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	if d.Handlers.Log == nil {
		d.Handlers.Log = log
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(d.Handlers)
	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(log, fn)
	}

	// ---- HEALTH ----
	r.Get("/health", wrap(h.Health))

	// Streaming is bounded by the client, not by RequestTimeout.
	r.Get("/jobs/{jobId}/video", wrap(h.StreamVideo))

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}

		// ---- RENDER ----
		r.Post("/v1/image/transform/video", wrap(h.TransformVideo))
		r.Get("/presets", wrap(h.Presets))

		// ---- JOBS ----
		r.Get("/jobs", wrap(h.ListJobs))
		r.Get("/jobs/{jobId}", wrap(h.GetJob))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpkit.WriteErr(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})

	return r
}
