package shared

import "fmt"

// ErrorKind classifies domain errors so callers can react without parsing codes
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindValidation        ErrorKind = "VALIDATION"
	KindNoOp              ErrorKind = "NO_OP"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind.
// A target carrying a code other than its kind only matches that exact code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == string(t.Kind) || t.Code == e.Code
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Sentinels for errors.Is checks
var (
	ErrNotFound          = NewDomainError(KindNotFound, string(KindNotFound), "Resource not found")
	ErrInvalidTransition = NewDomainError(KindInvalidTransition, string(KindInvalidTransition), "Operation not allowed in current state")
	ErrPermissionDenied  = NewDomainError(KindInvalidTransition, "PERMISSION_DENIED", "Role is not allowed to perform this action")
	ErrInsufficientStock = NewDomainError(KindInsufficientStock, string(KindInsufficientStock), "Insufficient stock available")
	ErrValidation        = NewDomainError(KindValidation, string(KindValidation), "Invalid input provided")
	ErrNoOp              = NewDomainError(KindNoOp, string(KindNoOp), "No change needed")
)

// NewNotFoundError reports an unresolved entity id
func NewNotFoundError(entity string, id fmt.Stringer) *DomainError {
	return NewDomainError(KindNotFound, string(KindNotFound), fmt.Sprintf("%s %s not found", entity, id))
}

// NewInvalidTransitionError names the rejected source→target pair
func NewInvalidTransitionError(entity string, from, to fmt.Stringer) *DomainError {
	return NewDomainError(KindInvalidTransition, string(KindInvalidTransition),
		fmt.Sprintf("Cannot transition %s from %s to %s", entity, from, to))
}

// NewInvalidStateError is used when an operation other than a status change is refused by the current status
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(KindInvalidTransition, "INVALID_STATE", message)
}

// NewPermissionError reports a role or ownership check failure
func NewPermissionError(message string) *DomainError {
	return NewDomainError(KindInvalidTransition, "PERMISSION_DENIED", message)
}

// NewTransitionPermissionError names who was refused and the blocked source→target pair
func NewTransitionPermissionError(who, entity string, from, to fmt.Stringer) *DomainError {
	return NewDomainError(KindInvalidTransition, "PERMISSION_DENIED",
		fmt.Sprintf("%s cannot transition %s from %s to %s", who, entity, from, to))
}

// NewInsufficientStockError names the product and both quantities
func NewInsufficientStockError(reference string, available, requested int) *DomainError {
	return NewDomainError(KindInsufficientStock, string(KindInsufficientStock),
		fmt.Sprintf("Insufficient stock for product %s: available %d, requested %d", reference, available, requested))
}

// NewValidationError reports malformed input
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewNoOpError reports a request that would not change anything
func NewNoOpError(message string) *DomainError {
	return NewDomainError(KindNoOp, string(KindNoOp), message)
}
