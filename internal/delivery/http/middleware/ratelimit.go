package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/user/price-service/internal/delivery/http/response"
	"github.com/user/price-service/internal/repository"
	"github.com/user/price-service/pkg/metrics"
)

// RateLimit rejects clients over their budget with 429. Clients are keyed by
// IP; run it after chi's RealIP. Limiter errors let the request through.
func RateLimit(limiter repository.RateLimiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.String("client", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.IncRateLimited()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(response.ErrorResponse{Error: "Too many requests. Please try again later."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
