package httpx

import (
	"errors"
	"net/http"

	"github.com/furu-identity/furu-identity/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrEmailTaken),
		errors.Is(err, shared.ErrUsernameTaken):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrWeakPassword):
		Problem(w, http.StatusUnprocessableEntity, "Password Policy", err.Error())
	case errors.Is(err, shared.ErrInvalidUsername):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Username", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrInvalidToken):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrAccountDeactivated):
		Problem(w, http.StatusForbidden, "Account Deactivated", err.Error())
	case errors.Is(err, shared.ErrAlreadyVerified):
		Problem(w, http.StatusBadRequest, "Already Verified", err.Error())
	case errors.Is(err, shared.ErrTokenNotFound),
		errors.Is(err, shared.ErrTokenAlreadyUsed),
		errors.Is(err, shared.ErrTokenExpired):
		Problem(w, http.StatusBadRequest, "Invalid Token", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
