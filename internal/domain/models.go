package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ExtensionStatus string

const (
	ExtensionStatusPending  ExtensionStatus = "PENDING"
	ExtensionStatusApproved ExtensionStatus = "APPROVED"
	ExtensionStatusDenied   ExtensionStatus = "DENIED"
)

// Resolved reports whether the status is terminal. PENDING is the only
// non-terminal state; there is no re-open transition.
func (s ExtensionStatus) Resolved() bool {
	return s == ExtensionStatusApproved || s == ExtensionStatusDenied
}

type UserStatusKind string

const (
	UserStatusActive     UserStatusKind = "ACTIVE"
	UserStatusIdle       UserStatusKind = "IDLE"
	UserStatusOOO        UserStatusKind = "OOO"
	UserStatusOnboarding UserStatusKind = "ONBOARDING"
)

type UserStatusState string

const (
	StatusStateCurrent  UserStatusState = "CURRENT"
	StatusStateUpcoming UserStatusState = "UPCOMING"
)

const (
	RoleMember    = "MEMBER"
	RoleSuperUser = "SUPERUSER"
)

type User struct {
	UserID    uuid.UUID
	Username  string
	Role      string
	CreatedAt time.Time
}

func (u User) IsSuperUser() bool { return u.Role == RoleSuperUser }

// Task is referenced by extension requests; EndsOn is the current ETA as a
// unix timestamp and is only advanced when a request is approved.
type Task struct {
	TaskID    uuid.UUID
	Title     string
	Assignee  uuid.UUID
	Status    string
	EndsOn    int64
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExtensionRequest is one request to push a task's ETA. RequestNumber is a
// 1-based per-task sequence covering every request regardless of outcome.
type ExtensionRequest struct {
	RequestID     uuid.UUID
	TaskID        uuid.UUID
	Assignee      uuid.UUID
	Title         string
	OldEndsOn     int64
	NewEndsOn     int64
	Reason        string
	Status        ExtensionStatus
	RequestNumber int
	CreatedBy     uuid.UUID
	ResolvedBy    *uuid.UUID
	ResolvedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserStatus is one temporal slot of a user's status: the active-now CURRENT
// row or the single scheduled UPCOMING row. AppliedOn is stored at UTC
// start-of-day, EndsOn (OOO only) at UTC end-of-day.
type UserStatus struct {
	UserID    uuid.UUID
	Status    UserStatusKind
	State     UserStatusState
	Message   string
	AppliedOn time.Time
	EndsOn    *time.Time
	UpdatedAt time.Time
}

// AuditEntry is append-only; consumers query by meta-field equality, so the
// meta keys (taskId, extensionRequestId, userId, action) are part of the
// external contract.
type AuditEntry struct {
	LogID     uuid.UUID
	Type      string
	Meta      map[string]string
	Body      json.RawMessage
	CreatedAt time.Time
}

const (
	AuditTypeExtensionRequests = "extensionRequests"
	AuditTypeUserStatus        = "userStatus"
)
