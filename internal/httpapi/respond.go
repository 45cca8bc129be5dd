package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mathly/internal/app"
	"mathly/internal/profile"
	"mathly/internal/solver"
	"mathly/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

// respondFailure maps an application error to a status code. Internal
// details of 5xx failures are logged and replaced by a generic message.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	s.respondError(w, status, message)
}

func classify(err error) (int, string) {
	var corrupt *storage.CorruptRecordError
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, profile.ErrProfileNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, profile.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, app.ErrRecognizerUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, profile.ErrInvalidAvatar):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &corrupt):
		return http.StatusInternalServerError, "stored record is unreadable"
	}

	switch solver.KindOf(err) {
	case solver.KindValidation:
		return http.StatusUnprocessableEntity, validationMessage(err)
	case solver.KindTransport, solver.KindParse:
		return http.StatusBadGateway, "the solver could not answer"
	}
	return http.StatusInternalServerError, "internal error"
}

func validationMessage(err error) string {
	var se *solver.Error
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "Validation error: "+err.Error())
		return false
	}
	return true
}

// queryInt returns the named query parameter clamped to [1, max], or def
// when it is absent or malformed.
func queryInt(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
