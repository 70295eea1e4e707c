package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/Clark-Hu/cinemateca/internal/repository"
	"github.com/Clark-Hu/cinemateca/internal/service"
	"github.com/Clark-Hu/cinemateca/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type pageResponse[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"hasMore"`
}

// decodeJSONBody decodes a size-limited JSON body into dst and runs struct validation.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validation.Struct(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var (
		syntaxError *json.SyntaxError
		typeError   *json.UnmarshalTypeError
		validErr    *validation.Error
		maxBytes    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validErr):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: validErr.Error(),
			Details: validErr.Fields,
		})
	case strings.Contains(err.Error(), "unknown field"):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", strings.TrimPrefix(err.Error(), "json: "))
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytes):
		s.respondError(w, http.StatusRequestEntityTooLarge, "BAD_REQUEST", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// respondServiceError maps domain sentinels to HTTP errors and logs anything else.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		s.respondError(w, http.StatusConflict, "CONFLICT", "Resource already exists")
	case errors.Is(err, repository.ErrInvalidReference):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Referenced resource does not exist")
	case errors.Is(err, service.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to modify this resource")
	case errors.Is(err, service.ErrInvalidInput):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": "))
	default:
		loggerFrom(r, s.logger).Error().Err(err).Str("op", op).Msg("request failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
	}
}

// paging reads limit and offset query parameters.
func paging(query url.Values) (limit, offset int, err error) {
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err = strconv.Atoi(val)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit value")
		}
	}
	if val := strings.TrimSpace(query.Get("offset")); val != "" {
		offset, err = strconv.Atoi(val)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset value")
		}
	}
	return limit, offset, nil
}

func optionalString(query url.Values, key string) *string {
	if val := strings.TrimSpace(query.Get(key)); val != "" {
		return &val
	}
	return nil
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func isTruthy(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
