package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/stats"
)

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// logMiddleware logs every request and records its latency.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		s.stats.IncCounter(stats.MetricHTTPRequests, 1)
		s.stats.ObserveHistogram(stats.MetricHTTPSeconds, elapsed.Seconds())
		if sw.status >= http.StatusBadRequest {
			s.stats.IncCounter(stats.Prefixed(strconv.Itoa(sw.status/100)+"xx", stats.MetricHTTPErrors), 1)
		}
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// recoverMiddleware turns a handler panic into a 500 response and reports
// it.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil || rec == http.ErrAbortHandler {
				if rec != nil {
					panic(rec)
				}
				return
			}
			err := fmt.Errorf("panic: %v", rec)
			s.stats.IncCounter(stats.MetricHTTPPanics, 1)
			s.logger.Error("handler panicked",
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			s.report(r, "Handler panicked", err)
			s.writeJSON(w, r, http.StatusInternalServerError, failure{
				Cause:  err.Error(),
				Status: http.StatusInternalServerError,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
