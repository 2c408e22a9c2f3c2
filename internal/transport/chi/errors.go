package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/bylawbot/internal/domain"
)

// Error codes returned in the "code" field.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeUnauthorized      = "unauthorized"
	codeNotFound          = "not_found"
	codeSearchUnavailable = "search_unavailable"
	codeInternal          = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

type validationDetails struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return domain.ErrValidationFailed.Error()
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrSearchFailed),
		errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrIndexUnavailable):
		return "search unavailable"
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg, nil)
		return true
	}
}

// validationHandler reports ErrValidationFailed with the offending field.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidationFailed) {
		return false
	}
	var details any
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		details = validationDetails{Field: ve.Field, Reason: ve.Reason}
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, msg, details)
	return true
}
