// internal/handler/common.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/osfield/osfield/internal/domain"
)

// ErrorResponse is the error envelope. Message is for humans; Reason is a
// stable code clients can branch on.
type ErrorResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func respondWithError(w http.ResponseWriter, code int, message, reason string) {
	respondWithJSON(w, code, ErrorResponse{Message: message, Reason: reason})
}

// respondDomainError maps a service-layer error onto the HTTP taxonomy:
// 400 validation, 401 authentication, 403 authorization, 404 missing
// resources, 409 conflicts, 503 storage trouble.
func respondDomainError(w http.ResponseWriter, err error) {
	var denied *domain.AccessDenied
	if errors.As(err, &denied) {
		code := http.StatusForbidden
		if denied.Reason == domain.ReasonNotAuthenticated {
			code = http.StatusUnauthorized
		}
		respondWithError(w, code, denied.Message, string(denied.Reason))
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "invalid email or password", "invalid_credentials")

	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrOrganizationNotFound),
		errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "not_found")

	case errors.Is(err, domain.ErrAssigneeInvalid):
		respondWithError(w, http.StatusNotFound, err.Error(), "assignee_invalid")

	case errors.Is(err, domain.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, err.Error(), "invalid_status")
	case errors.Is(err, domain.ErrInvalidTransition):
		respondWithError(w, http.StatusBadRequest, err.Error(), "invalid_transition")
	case errors.Is(err, domain.ErrClosingReasonRequired):
		respondWithError(w, http.StatusBadRequest, err.Error(), "closing_reason_required")
	case errors.Is(err, domain.ErrReopenReasonRequired):
		respondWithError(w, http.StatusBadRequest, err.Error(), "reopen_reason_required")
	case errors.Is(err, domain.ErrRejectionReasonRequired):
		respondWithError(w, http.StatusBadRequest, err.Error(), "rejection_reason_required")
	case errors.Is(err, domain.ErrSameAssignee):
		respondWithError(w, http.StatusBadRequest, err.Error(), "same_assignee")
	case errors.Is(err, domain.ErrTransferReasonRequired):
		respondWithError(w, http.StatusBadRequest, err.Error(), "transfer_reason_required")
	case errors.Is(err, domain.ErrInvalidRole):
		respondWithError(w, http.StatusBadRequest, err.Error(), "invalid_role")
	case errors.Is(err, domain.ErrCustomerOtherOrg):
		respondWithError(w, http.StatusBadRequest, err.Error(), "customer_other_org")
	case errors.Is(err, domain.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error(), "invalid_input")

	case errors.Is(err, domain.ErrEmailAlreadyExists):
		respondWithError(w, http.StatusConflict, err.Error(), "email_exists")
	case errors.Is(err, domain.ErrDocumentAlreadyExists):
		respondWithError(w, http.StatusConflict, err.Error(), "document_exists")
	case errors.Is(err, domain.ErrVersionConflict):
		respondWithError(w, http.StatusConflict, err.Error(), "version_conflict")

	case errors.Is(err, domain.ErrStorage):
		respondWithError(w, http.StatusServiceUnavailable, "storage unavailable", "storage_unavailable")

	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error", "internal")
	}
}
