package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/runner"
)

type errorResponse struct {
	Error  string        `json:"error"`
	Issues []graph.Issue `json:"issues,omitempty"`
}

// statusFor maps engine errors to HTTP status codes and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, domain.ErrSessionNotFound.Error()
	case graph.IsFormatError(err):
		return http.StatusUnprocessableEntity, "invalid graph"
	case errors.Is(err, chatflow.ErrNotReloadable):
		return http.StatusConflict, chatflow.ErrNotReloadable.Error()
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge, runner.ErrInputTooLarge.Error()
	case errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest, runner.ErrInvalidUTF8.Error()
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusServiceUnavailable, domain.ErrLockTimeout.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error()
	case errors.Is(err, domain.ErrNoGraph):
		return http.StatusServiceUnavailable, domain.ErrNoGraph.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: msg, Issues: graph.Issues(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}
