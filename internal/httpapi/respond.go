package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/apperr"
)

// failure is the body of every unsuccessful response.
type failure struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
	Status  int    `json:"status"`
}

// Status maps err to an HTTP status. Upstream failures keep the status the
// upstream reported.
func Status(err error) int {
	var ue *apperr.UpstreamError
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.As(err, &ue):
		if ue.Status == 0 {
			return apperr.StatusDefault
		}
		return ue.Status
	default:
		return apperr.StatusDefault
	}
}

// writeJSON encodes body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("encoding response failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.report(r, "Encoding response failed", err)
		data, _ = json.Marshal(failure{Cause: "failed to encode response", Status: http.StatusInternalServerError})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes the failure envelope for err.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorStatus(w, r, Status(err), err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		if !apperr.IsUpstream(err) {
			s.report(r, "Request failed", err)
		}
	}
	s.writeJSON(w, r, status, failure{Cause: apperr.Cause(err), Status: status})
}

// report forwards an unexpected failure to the notifier.
func (s *Server) report(r *http.Request, title string, err error) {
	alert.Send(s.notifier, alert.Alert{
		Level:   alert.LevelError,
		Title:   title,
		Message: err.Error(),
		Fields: []alert.Field{
			{Name: "path", Value: r.URL.RequestURI()},
		},
	}, s.logger)
}
