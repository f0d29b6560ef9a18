package middlewares

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
)

// LoginRateLimit caps credential attempts per client address on the auth
// routes. Defaults: LOGIN_MAX_ATTEMPTS=10 per LOGIN_WINDOW=5m.
func LoginRateLimit(rdb *redis.Client) func(http.Handler) http.Handler {
	limit := envInt("LOGIN_MAX_ATTEMPTS", 10)
	win := envDur("LOGIN_WINDOW", 5*time.Minute)

	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := "rl:login:" + ip

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, win).Err()
			}
			if n > int64(limit) {
				retry := win
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retry = ttl
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				httpx.ErrorCode(w, http.StatusTooManyRequests, "too_many_attempts", "Too many login attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
