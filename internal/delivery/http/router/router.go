package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/price-service/internal/delivery/http/handler"
	"github.com/user/price-service/internal/delivery/http/middleware"
	"github.com/user/price-service/internal/repository"
)

// New builds the HTTP router. limiter may be nil to disable rate limiting.
func New(h *handler.Handler, limiter repository.RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Get("/api/health", h.HandleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(middleware.RateLimit(limiter, logger))
		}
		r.Post("/get-price", h.HandleGetPrice)
	})

	if h.HasFailureLog() {
		r.Get("/api/failures/retryable", h.HandleRetryableFailures)
	}

	return r
}
