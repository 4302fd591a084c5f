// Package http exposes the short link use cases over HTTP.
package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter builds the chi router serving the short link API.
func NewRouter(logger *httplog.Logger, useCase shortLinkUseCase) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", handleSwaggerDoc)

	r.Get("/ping", handlePing)

	h := newShortLinkHandler(useCase, validator.New())

	r.Route("/url", func(r chi.Router) {
		r.Post("/", h.shortenURL)
		r.Get("/analytics/{shortID}", h.getAnalytics)
		r.Get("/cache/stats", h.getCacheStats)
	})

	r.Get("/{shortID}", h.redirect)

	return r
}
