package middlewares

import (
	"net/http"
	"time"

	"github.com/5w1tchy/shelf-api/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// AccessLog writes one line per request. User ids are attached by RequireAuth
// further down the chain, so they are read back from the response holder.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		holder := &userHolder{}
		next.ServeHTTP(rec, r.WithContext(withUserHolder(r.Context(), holder)))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(r),
		}
		if holder.id != "" {
			kv = append(kv, "user_id", holder.id)
		}
		switch {
		case status >= 500:
			logging.Error("request", kv...)
		case status >= 400:
			logging.Warn("request", kv...)
		default:
			logging.Info("request", kv...)
		}
	})
}
