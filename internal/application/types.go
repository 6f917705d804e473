package application

import (
	"encoding/json"
	"time"
)

type Config struct {
	ServiceName     string
	StatusCacheTTL  time.Duration
	TaskCacheTTL    time.Duration
	IdempotencyTTL  time.Duration
	EventDedupTTL   time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

type CreateExtensionRequestRequest struct {
	TaskID    string `json:"taskId"`
	Assignee  string `json:"assignee"`
	Title     string `json:"title"`
	OldEndsOn int64  `json:"oldEndsOn"`
	NewEndsOn int64  `json:"newEndsOn"`
	Reason    string `json:"reason"`
}

type UpdateExtensionStatusRequest struct {
	Status string `json:"status"`
}

// UpdateExtensionDetailsRequest carries Status/Assignee only so the service
// can reject attempts to smuggle them through the details endpoint.
type UpdateExtensionDetailsRequest struct {
	Title     *string `json:"title,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	NewEndsOn *int64  `json:"newEndsOn,omitempty"`
	Status    *string `json:"status,omitempty"`
	Assignee  *string `json:"assignee,omitempty"`
}

type ExtensionRequestResponse struct {
	ID            string     `json:"id"`
	TaskID        string     `json:"taskId"`
	Assignee      string     `json:"assignee"`
	Title         string     `json:"title"`
	OldEndsOn     int64      `json:"oldEndsOn"`
	NewEndsOn     int64      `json:"newEndsOn"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	RequestNumber int        `json:"requestNumber"`
	CreatedBy     string     `json:"createdBy"`
	ResolvedBy    string     `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type ListExtensionRequestsQuery struct {
	Assignee string
	TaskID   string
	Statuses []string
	Cursor   string
	Size     int
	Order    string
}

type ExtensionRequestListResponse struct {
	Requests []ExtensionRequestResponse `json:"allExtensionRequests"`
	Next     string                     `json:"next,omitempty"`
}

type SetUserStatusRequest struct {
	Status    string     `json:"status"`
	AppliedOn time.Time  `json:"appliedOn"`
	EndsOn    *time.Time `json:"endsOn,omitempty"`
	Message   string     `json:"message,omitempty"`
}

type UserStatusResponse struct {
	UserID    string     `json:"userId"`
	Status    string     `json:"status"`
	State     string     `json:"state"`
	Message   string     `json:"message,omitempty"`
	AppliedOn time.Time  `json:"appliedOn"`
	EndsOn    *time.Time `json:"endsOn,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SetUserStatusResult reports which temporal slot the write landed in so the
// HTTP layer can pick the right status code and message.
type SetUserStatusResult struct {
	Status  UserStatusResponse
	Created bool
	Message string
}

type StatusSweepResponse struct {
	NoOfUserStatusUpdated int   `json:"noOfUserStatusUpdated"`
	OooUsersAltered       int   `json:"oooUsersAltered"`
	NonOooUsersAltered    int   `json:"nonOooUsersAltered"`
	FutureStatusLeft      int64 `json:"futureStatusLeft"`
}

type CreateTaskRequest struct {
	Title    string `json:"title"`
	Assignee string `json:"assignee"`
	Status   string `json:"status,omitempty"`
	EndsOn   int64  `json:"endsOn"`
}

type TaskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Assignee  string    `json:"assignee"`
	Status    string    `json:"status"`
	EndsOn    int64     `json:"endsOn"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AuditLogView struct {
	Type      string            `json:"type"`
	Meta      map[string]string `json:"meta"`
	Body      json.RawMessage   `json:"body"`
	Timestamp time.Time         `json:"timestamp"`
}
