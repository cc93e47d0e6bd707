package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tobenna/launchpad/internal/api/problem"
)

// PublicRateLimiter throttles unauthenticated routes per source IP.
func PublicRateLimiter(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(rps, time.Second,
		httprate.WithLimitHandler(rateLimited(rps, "IP")),
	)
}

// AuthRateLimiter throttles authenticated routes per user, falling back to
// the source IP when no user is on the context.
func AuthRateLimiter(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if id := UserIDFromContext(r.Context()); id != "" {
				return id, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(rateLimited(rps, "user")),
	)
}

func rateLimited(rps int, scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusTooManyRequests,
			problem.Type("rate-limit-exceeded"), "",
			fmt.Sprintf("rate limit of %d req/s exceeded for this %s", rps, scope))
	}
}
