package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"compreg-backend/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var regErr *domain.RegistrationError
	if errors.As(err, &regErr) {
		writeJSON(w, statusFor(regErr), errorResponse{Error: regErr.Message, Code: regErr.Code})
		return
	}
	var badReq *domain.BadRequestError
	if errors.As(err, &badReq) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: badReq.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func statusFor(err *domain.RegistrationError) int {
	switch err {
	case domain.ErrInvalidStatus, domain.ErrMissingEvents, domain.ErrCommentTooLong, domain.ErrInvalidGuestCount:
		return http.StatusUnprocessableEntity
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrPermissionDenied:
		return http.StatusUnauthorized
	case domain.ErrRegistrationExists:
		return http.StatusConflict
	case domain.ErrRegistrationClosed, domain.ErrPaymentNotEnabled, domain.ErrPaymentNotReady:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// bulkResultBody renders a per-item bulk outcome: either the updated view or
// the error for that item.
type bulkResultBody struct {
	Registration *domain.RegistrationView `json:"registration,omitempty"`
	Error        string                   `json:"error,omitempty"`
	Code         string                   `json:"code,omitempty"`
}
