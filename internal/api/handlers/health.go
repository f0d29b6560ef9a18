package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
)

const pingTimeout = 2 * time.Second

// Healthz reports database and Redis reachability. Redis is optional: a nil
// client is reported as "disabled" and does not fail the check.
func Healthz(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true

		if db == nil || db.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			healthy = false
		}
		switch {
		case rdb == nil:
			checks["redis"] = "disabled"
		case rdb.Ping(ctx).Err() != nil:
			checks["redis"] = "unreachable"
			healthy = false
		}

		status, code := "success", http.StatusOK
		if !healthy {
			status, code = "error", http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, map[string]any{"status": status, "checks": checks})
	}
}

// RootHandler answers GET / with the service name.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httpx.ErrorJSON(w, http.StatusNotFound, "not found")
		return
	}
	httpx.OK(w, map[string]string{"service": "shelf-api"})
}
