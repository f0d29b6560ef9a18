package middlewares

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

const defaultBodyLimit = 1 << 20

// BodyLimitFromEnv reads MAX_BODY_SIZE in bytes (default 1 MiB).
func BodyLimitFromEnv() int64 {
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultBodyLimit
}

// BodySizeLimit caps request bodies of writes. Multipart uploads are left to
// the handler, which applies its own larger cap.
func BodySizeLimit(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
					r.Body = http.MaxBytesReader(w, r.Body, limit)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
