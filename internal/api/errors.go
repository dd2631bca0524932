package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/foldernotes/notes-server/internal/errors"
)

// APIError is an error raised by the framework rather than a service:
// undecodable bodies, schema violations, bad path parameters.
// It is written with the same envelope as domain errors.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Result  string   `json:"status" enum:"error" doc:"Always \"error\""`
	Message string   `json:"message" doc:"Human-readable error message"`
	Errors  []string `json:"errors,omitempty" doc:"Every violated rule"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		details := make([]string, 0, len(errs))
		for _, err := range errs {
			if err == nil {
				continue
			}
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return domainErr
			}
			details = append(details, detailMessage(err))
		}

		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
			message = domainerrors.ErrValidation.Message
		}
		// Causes of server faults stay in the logs.
		if status >= http.StatusInternalServerError {
			details = nil
		}

		return &APIError{
			status:  status,
			Result:  "error",
			Message: message,
			Errors:  details,
		}
	}
}

// detailMessage renders a huma validation detail as "field: problem".
func detailMessage(err error) string {
	var detail *huma.ErrorDetail
	if !errors.As(err, &detail) {
		return err.Error()
	}
	location := strings.TrimPrefix(detail.Location, "body.")
	if location == "" || location == "body" {
		return detail.Message
	}
	return location + ": " + detail.Message
}

// writeError writes err outside of a huma operation, for routes chi answers
// on its own.
func writeError(w http.ResponseWriter, err *domainerrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}
