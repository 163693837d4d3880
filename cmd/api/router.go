package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FACorreiaa/receipt-pipeline/pkg/auth"
	"github.com/FACorreiaa/receipt-pipeline/pkg/middleware"
)

// newRouter assembles the public HTTP surface: the scan endpoint, taxonomy
// search, health and the static mount for locally stored uploads. Metrics
// live on their own listener, see newMetricsServer.
func newRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recover(deps.Logger, !deps.Config.IsProduction()))
	r.Use(middleware.RateLimit(deps.Config.Server.RateLimitPerSecond, deps.Config.Server.RateLimitBurst))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{deps.Config.Server.BaseURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Locally stored uploads are served straight from disk; in S3 mode the
	// signed URLs point at the bucket instead and this mount stays unused.
	if deps.LocalStore != nil {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.LocalStore.BasePath())))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(deps.TokenManager))

		r.Post("/receipts/scan", deps.ReceiptHandler.Scan)
		r.Get("/taxonomy/search", deps.TaxonomyHandler.Search)
	})

	return r
}

// newMetricsServer serves /metrics on its own port, away from the public
// surface and its middleware.
func newMetricsServer(deps *Dependencies, port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
