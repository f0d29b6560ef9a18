package middlewares

import (
	"net/http"
	"strconv"
	"time"
)

type rtWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *rtWriter) stamp() {
	if !w.wroteHeader {
		w.Header().Set("X-Response-Time", elapsedMS(w.start))
		w.wroteHeader = true
	}
}

func (w *rtWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *rtWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *rtWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// ResponseTime reports handler latency in X-Response-Time as "<ms>ms".
func ResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &rtWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(rw, r)

		if !rw.wroteHeader {
			rw.Header().Set("X-Response-Time", elapsedMS(rw.start))
		}
	})
}

func elapsedMS(start time.Time) string {
	ms := float64(time.Since(start).Microseconds()) / 1000
	return strconv.FormatFloat(ms, 'f', 2, 64) + "ms"
}
