// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/taskeri/taskeri/internal/shared"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Stable client-facing messages. Internal error text never reaches the response body.
const (
	MsgMissingToken  = "Missing or invalid token"
	MsgInvalidToken  = "Invalid or expired token"
	MsgExpiredToken  = "Token has expired"
	MsgForbidden     = "You don't have permission to access this resource"
	MsgInternal      = "Internal server error"
	MsgBadCredential = "Invalid credentials"
)

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "Resource not found")
	case errors.Is(err, shared.ErrDuplicateIdentity):
		Problem(w, http.StatusBadRequest, "Duplicate", "Email already exists.")
	case errors.Is(err, shared.ErrTenantTaken):
		Problem(w, http.StatusBadRequest, "Duplicate", "Tenant already exists.")
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", MsgForbidden)
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", MsgBadCredential)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", MsgInternal)
	}
}
