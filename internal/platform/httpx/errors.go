// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/inventario/inventario/internal/shared"
)

// RespondError maps domain errors to RFC7807 responses. Forbidden is reported
// exactly like NotFound so callers cannot probe for hidden resources.
func RespondError(w http.ResponseWriter, err error) {
	msg := shared.UserSafeMessage(err)
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusNotFound, "Not Found", msg)
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", msg)
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", msg)
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidQuantity):
		Problem(w, http.StatusBadRequest, "Validation Failed", msg)
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", "csrf token invalid")
	case errors.Is(err, shared.ErrTransient):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", msg)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
