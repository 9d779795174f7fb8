package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// route adds no-store caching, panic recovery and request metrics.
func (s *Server) route(name string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("Cache-Control", "no-store")

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic", zap.String("path", r.URL.Path), zap.Any("panic", p), zap.Stack("stack"))
				respondError(rec, http.StatusInternalServerError, "internal error")
			}
			s.metrics.ObserveRequest(name, rec.status, time.Since(start))
		}()

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			respondError(rec, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(rec, r)
	})
}

// withTimeout bounds the whole request, on top of per-call upstream timeouts.
func (s *Server) withTimeout(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}
