package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Rrens/clinic-assistant/internal/api/response"
	"github.com/Rrens/clinic-assistant/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Limiter counts requests per key within a window
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
	Limit() int
}

// RejectFunc is told about every request the limiter turns away
type RejectFunc func(r *http.Request, status int, message string, elapsed time.Duration)

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter  Limiter
	onReject RejectFunc
}

// NewRateLimitMiddleware creates a new rate limit middleware. onReject may be nil.
func NewRateLimitMiddleware(limiter Limiter, onReject RejectFunc) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, onReject: onReject}
}

const rateLimitedMessage = "Demasiadas solicitudes. Por favor, espera un momento e inténtalo de nuevo."

// Limit applies rate limiting keyed by client IP
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}

		allowed, remaining, resetTime, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// fail open
			log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			metrics.ObserveRateLimited()
			retryAfter := int(time.Until(resetTime).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.TooManyRequests(w, rateLimitedMessage)
			if m.onReject != nil {
				m.onReject(r, http.StatusTooManyRequests, "rate limit exceeded", time.Since(start))
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}
