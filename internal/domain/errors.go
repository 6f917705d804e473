package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// Workflow-specific kinds. Each maps to a stable machine-readable code at the
// HTTP boundary; keep them as distinct sentinels so callers can branch with
// errors.Is.
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidEta           = errors.New("new ETA must exceed the current floor")
	ErrPendingRequestExists = errors.New("a pending extension request already exists for this task")
	ErrAssigneeMismatch     = errors.New("assignee does not match the task assignee")
	ErrAssigneeImmutable    = errors.New("assignee of an extension request cannot be changed")
	ErrInvalidPatch         = errors.New("status cannot be changed through this endpoint")
	ErrAlreadyResolved      = errors.New("extension request is already resolved")
	ErrInvalidStatus        = errors.New("unsupported status value")
	ErrPastDate             = errors.New("appliedOn cannot be in the past")
	ErrInvalidRange         = errors.New("endsOn must not precede appliedOn")
	ErrMessageRequired      = errors.New("message is required for long OOO periods")
)
