// Package restapi exposes the transcript service over plain JSON HTTP.
package restapi

import (
	"context"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// maxRequestBytes leaves room for a page_markup watch page.
const maxRequestBytes = 8 << 20

// Service is what the handlers need from the transcript service.
type Service interface {
	Transcript(ctx context.Context, in engine.TranscriptInput) (engine.TranscriptOutput, error)
	Summarize(ctx context.Context, in engine.SummarizeInput) (engine.SummarizeOutput, error)
}

// Config controls the REST surface.
type Config struct {
	CORSOrigins    []string
	RequestTimeout time.Duration // per request; 0 = 2 minutes
}

func NewRouter(svc Service, cfg Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(Logger)
	r.Use(cors.Handler(CORSOptions(cfg.CORSOrigins)))

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	h := &handler{svc: svc, timeout: timeout}

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Use(MaxBodySize(maxRequestBytes))
		r.Post("/transcript", h.transcript)
		r.Post("/summarize", h.summarize)
	})
	return r
}
