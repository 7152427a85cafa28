package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatshot/internal/config"
	"chatshot/internal/httpapi/handlers"
	"chatshot/internal/httpkit"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/pkg/middleware"
	"chatshot/internal/render"
	"chatshot/internal/sink"
)

type Deps struct {
	Service *render.Service
	Sink    *sink.Sink
	Log     *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	// The video pipeline runs on the same host; keep origins permissive
	// for local tools unless narrowed via env.
	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{"*"})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(handlers.Deps{
		Service: d.Service,
		Sink:    d.Sink,
		Log:     d.Log,
	})

	r.Get("/api/health", h.Health)
	r.Post("/api/generate-screenshots", h.GenerateScreenshots)

	return r
}

func envCSV(key string, def []string) []string {
	raw := config.Env(key, "")
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
