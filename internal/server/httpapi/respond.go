package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lucasvieira/questify/internal/common"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(r.Context(), "failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.writeJSON(w, r, statusCode, errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// writeServiceError maps a service error onto a status code. Internal
// details never leave the server; they are logged instead.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrAlreadyCompleted):
		s.writeError(w, r, http.StatusConflict, "mission already completed")
	case errors.Is(err, common.ErrMissionCompleted):
		s.writeError(w, r, http.StatusConflict, "completed missions cannot be deleted")
	case errors.Is(err, common.ErrEmailExists):
		s.writeError(w, r, http.StatusConflict, "email already registered")
	case errors.Is(err, common.ErrValidation):
		s.writeError(w, r, http.StatusBadRequest, "invalid request")
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		s.writeError(w, r, http.StatusUnauthorized, "unauthorized")
	default:
		s.logger.Error(r.Context(), "internal error", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
