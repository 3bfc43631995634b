package handlers

import (
	"errors"
	"net/http"

	"github.com/mobank/backend/internal/services"
)

// writeDomainError maps ledger/store errors onto HTTP status codes. Every
// domain error is a terminal outcome of one user action; nothing here is
// retried.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrSameAccount):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrSelfServiceNotAllowed):
		services.SendErrorResponse(w, err.Error(), http.StatusForbidden, nil)
	case errors.Is(err, services.ErrAccountNotFound):
		services.SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, services.ErrDuplicateContact),
		errors.Is(err, services.ErrInsufficientFunds):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	default:
		services.SendErrorResponse(w, "Failed to process request", http.StatusInternalServerError, nil)
	}
}
