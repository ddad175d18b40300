// Package ratelimit provides a Redis-backed request limiter used to slow
// down credential guessing on the auth endpoints.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// New builds a limiter allowing max requests per window, backed by Redis so
// the limit holds across API replicas.
func New(rdb *redis.Client, max int64, window time.Duration) (*limiter.Limiter, error) {
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, limiter.Rate{Period: window, Limit: max}), nil
}

// Middleware limits requests per client IP. Exhausted clients receive 429
// with the standard error envelope.
func Middleware(lim *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if lim == nil {
				next.ServeHTTP(w, r)
				return
			}
			lctx, err := lim.Get(r.Context(), common.ClientIP(r))
			if err != nil {
				// limiter backend trouble must not take the API down
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
