// Package httpapi wires the middleware chain and routes.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/engine"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/httpapi/handlers"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/httpkit"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/jobstore"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/logger"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/middleware"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/ports"
)

type Deps struct {
	Store   jobstore.Store
	Engine  *engine.Engine
	Archive ports.ArchiveProvider
	Log     *logger.Logger
	BaseCtx context.Context

	UploadDir      string
	MaxUploadBytes int64
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.Logging(d.Log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:3000",
		"http://localhost:5173",
	})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(handlers.Deps{
		Store:          d.Store,
		Engine:         d.Engine,
		Archive:        d.Archive,
		Log:            d.Log,
		BaseCtx:        d.BaseCtx,
		UploadDir:      d.UploadDir,
		MaxUploadBytes: d.MaxUploadBytes,
	})

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Get("/status/{jobID}", h.Status)
		r.Get("/result/{jobID}", h.Result)
		r.Delete("/job/{jobID}", h.Delete)
	})

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
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
