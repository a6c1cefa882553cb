package httpx

import (
	"errors"
	"net/http"

	"github.com/campuskit/campuskit/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. A deny or
// credential failure is a normal outcome and carries its reason; anything
// unrecognised collapses to an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredential):
		Problem(w, http.StatusBadRequest, "Invalid Credential", err.Error())
	case errors.Is(err, shared.ErrRateLimited):
		Problem(w, http.StatusTooManyRequests, "Rate Limited", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDeliveryFailure):
		Problem(w, http.StatusBadGateway, "Delivery Failure", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
