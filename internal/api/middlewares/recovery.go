package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/logging"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				rid := GetRequestID(r)
				if rid == "" {
					rid = "unknown"
				}
				logging.Error("[panic] handler crashed",
					"request_id", rid, "method", r.Method, "path", r.URL.Path,
					"err", err, "stack", string(debug.Stack()))

				apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
