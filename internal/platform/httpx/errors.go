// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/supplylink/supplylink/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrEmptyOrder),
		errors.Is(err, shared.ErrInvalidItem),
		errors.Is(err, shared.ErrPastDeliveryDate),
		errors.Is(err, shared.ErrInvalidQuantity),
		errors.Is(err, shared.ErrEmptyMessage),
		errors.Is(err, shared.ErrReasonRequired),
		errors.Is(err, shared.ErrResponseRequired):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIneligibleVendor),
		errors.Is(err, shared.ErrVendorNotApproved),
		errors.Is(err, shared.ErrStockNotLow),
		errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusUnprocessableEntity, "Business Rule Violation", err.Error())
	case errors.Is(err, shared.ErrIllegalTransition),
		errors.Is(err, shared.ErrTerminalOrder),
		errors.Is(err, shared.ErrActionNotApplicable),
		errors.Is(err, shared.ErrAlreadyResolved),
		errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "State Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
