package http

import (
	"net/http"
	"time"

	"github.com/nvqhuy/tablebill/pkg/logger"
)

// RequestLogger logs method, path, status and latency for every request.
func RequestLogger(l logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			l.Infof(r.Context(), "%s %s -> %d (%dms)",
				r.Method, r.URL.Path, ww.statusCode, time.Since(start).Milliseconds())
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
