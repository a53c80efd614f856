package http

import (
	"errors"
	"net/http"
	"strings"

	"asesor/internal/auth"
	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/services"
	"asesor/internal/store"
)

// validationErrors are reported back to the client verbatim with 422.
var validationErrors = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrEmptyCategory,
	core.ErrEmptyOwner,
	core.ErrLabelTooLong,
	core.ErrNegativeBudget,
	core.ErrInvalidUsername,
	services.ErrPasswordMismatch,
	services.ErrEmptyPassword,
	services.ErrPasswordTooLong,
}

// errorResponse maps service errors to responses.
func errorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, errBadRequest):
		return BadRequestError(strings.TrimPrefix(err.Error(), errBadRequest.Error()+": "))
	case errors.Is(err, services.ErrInvalidCredentials):
		return UnauthorizedError(err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		return UnauthorizedError(auth.ErrInvalidToken.Error())
	case errors.Is(err, store.ErrUserExists):
		return ConflictError(store.ErrUserExists.Error())
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(store.ErrNotFound.Error())
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return UnprocessableEntityError(v.Error())
		}
	}
	return InternalServerError()
}

// writeError logs unexpected errors and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldOperation, op,
			applog.FieldError, err)
	}
	resp.Write(w, r)
}

// transactionDTO is the wire form of a transaction.
type transactionDTO struct {
	ID       string     `json:"id"`
	Date     core.Date  `json:"date"`
	Kind     core.Kind  `json:"kind"`
	Category string     `json:"category"`
	Label    string     `json:"label"`
	Amount   core.Money `json:"amount"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:       t.ID,
		Date:     t.Date,
		Kind:     t.Kind,
		Category: t.Category,
		Label:    t.Label,
		Amount:   t.Amount,
	}
}
