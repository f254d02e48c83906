package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/osse101/chunkward/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// encodeBuffers reduces allocations when rendering JSON bodies
var encodeBuffers = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload any) {
	buf := encodeBuffers.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		encodeBuffers.Put(buf)
	}()

	// Encode before writing the header so a failure can still become a 500
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error(ErrMsgEncodeFailed, "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error(ErrMsgWriteFailed, "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps a domain error onto a status code and a safe message
func respondServiceError(w http.ResponseWriter, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	respondError(w, status, msg)
}

// mapServiceErrorToUserMessage converts the domain error taxonomy to HTTP responses
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch domain.Kind(err) {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest, ErrMsgInvalidInputError
	case domain.ErrNotFound:
		return http.StatusNotFound, ErrMsgNotFoundError
	case domain.ErrConflict:
		return http.StatusConflict, ErrMsgConflictError
	case domain.ErrUnauthorized:
		return http.StatusForbidden, ErrMsgUnauthorizedError
	case domain.ErrLimitExceeded:
		return http.StatusUnprocessableEntity, ErrMsgLimitError
	case domain.ErrOnCooldown:
		return http.StatusTooManyRequests, ErrMsgOnCooldownError
	case domain.ErrPersistenceFailure:
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	}
	return http.StatusInternalServerError, ErrMsgGenericServerError
}
