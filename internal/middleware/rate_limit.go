package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"qms/internal/domain"
	"qms/internal/httputil"
)

// RateLimiter hands out one token bucket per caller
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per caller with bursts up to burst
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(burst, 1),
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// RateLimit rejects callers over their budget with 429. Authenticated
// callers are keyed by user ID, anonymous ones by client IP.
func RateLimit(l *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := httputil.GetUserID(r)
			if key == "" {
				key = clientIP(r)
			}

			reservation := l.limiter(key).Reserve()
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				logger.Warn("rate limit exceeded",
					"caller", key,
					"path", r.URL.Path,
					"request_id", httputil.RequestID(r.Context()),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				httputil.RespondProblem(w, http.StatusTooManyRequests, domain.KindRateLimited, "Rate limit exceeded. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
