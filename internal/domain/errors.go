// internal/domain/errors.go
package domain

import "errors"

// Reason is a stable machine-readable code attached to user-visible failures,
// distinct from the human-readable message so clients can branch without
// string-matching prose.
type Reason string

const (
	ReasonNotAuthenticated  Reason = "not_authenticated"
	ReasonWrongOrganization Reason = "wrong_organization"
	ReasonInsufficientRole  Reason = "insufficient_role"
	ReasonProtectedSubject  Reason = "protected_subject"
)

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Auth-related errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")

	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidRole        = errors.New("invalid role")

	// Organization-related errors
	ErrOrganizationNotFound = errors.New("organization not found")

	// Customer-related errors
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrDocumentAlreadyExists = errors.New("document already registered for organization")
	ErrCustomerOtherOrg      = errors.New("customer belongs to another organization")

	// Service-order lifecycle errors
	ErrOrderNotFound           = errors.New("service order not found")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrClosingReasonRequired   = errors.New("closing reason required")
	ErrReopenReasonRequired    = errors.New("reopen reason required")
	ErrRejectionReasonRequired = errors.New("rejection reason required")
	ErrAssigneeInvalid         = errors.New("new assignee invalid")
	ErrSameAssignee            = errors.New("already assigned to this user")
	ErrTransferReasonRequired  = errors.New("transfer reason required")

	// Concurrency and storage errors
	ErrVersionConflict = errors.New("service order was modified concurrently")
	ErrStorage         = errors.New("storage unavailable")
)

// AccessDenied is returned by the access policy when an authenticated user is
// not allowed to perform an operation. The Reason distinguishes an
// organization mismatch from a role gate from the protected-subject rule.
type AccessDenied struct {
	Reason  Reason
	Message string
}

func (e *AccessDenied) Error() string {
	return e.Message
}

// Denied builds an AccessDenied error.
func Denied(reason Reason, message string) *AccessDenied {
	return &AccessDenied{Reason: reason, Message: message}
}
