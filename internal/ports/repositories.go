package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
)

type CreateTaskParams struct {
	Title     string
	Assignee  uuid.UUID
	Status    string
	EndsOn    int64
	CreatedBy uuid.UUID
	Now       time.Time
}

// TaskRepository deliberately has no ETA mutator: ends_on is advanced only
// inside the extension-request approval transaction.
type TaskRepository interface {
	Create(ctx context.Context, params CreateTaskParams) (domain.Task, error)
	GetByID(ctx context.Context, taskID uuid.UUID) (domain.Task, error)
	List(ctx context.Context, limit, offset int) ([]domain.Task, error)
}

type CreateUserParams struct {
	UserID   uuid.UUID
	Username string
	Role     string
	Now      time.Time
}

type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}

type CreateExtensionRequestParams struct {
	TaskID    uuid.UUID
	Assignee  uuid.UUID
	Title     string
	OldEndsOn int64
	NewEndsOn int64
	Reason    string
	CreatedBy uuid.UUID
	Now       time.Time
}

type ResolveExtensionRequestParams struct {
	RequestID  uuid.UUID
	NewStatus  domain.ExtensionStatus
	ResolvedBy uuid.UUID
	Now        time.Time
}

type UpdateExtensionDetailsParams struct {
	RequestID uuid.UUID
	Title     *string
	Reason    *string
	NewEndsOn *int64
	EditedBy  uuid.UUID
	Now       time.Time
}

type ExtensionRequestFilter struct {
	Assignee *uuid.UUID
	TaskID   *uuid.UUID
	Statuses []domain.ExtensionStatus
	Cursor   string
	Size     int
	// Order is "asc" or "desc" over (created_at, request_id).
	Order string
}

type ExtensionRequestPage struct {
	Requests   []domain.ExtensionRequest
	NextCursor string
}

// ExtensionRequestRepository owns the transactional invariants: Create locks
// the task row and enforces single-PENDING plus contiguous request numbering;
// Resolve and UpdateDetails lock the request row and reject terminal states.
// All three append their audit entries inside the same transaction.
type ExtensionRequestRepository interface {
	Create(ctx context.Context, params CreateExtensionRequestParams) (domain.ExtensionRequest, error)
	GetByID(ctx context.Context, requestID uuid.UUID) (domain.ExtensionRequest, error)
	GetLatestByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.ExtensionRequest, error)
	GetLatestResolvedByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.ExtensionRequest, error)
	GetLatestByAssignee(ctx context.Context, assignee uuid.UUID) (*domain.ExtensionRequest, error)
	List(ctx context.Context, filter ExtensionRequestFilter) (ExtensionRequestPage, error)
	Resolve(ctx context.Context, params ResolveExtensionRequestParams) (domain.ExtensionRequest, error)
	UpdateDetails(ctx context.Context, params UpdateExtensionDetailsParams) (domain.ExtensionRequest, error)
}

type UserStatusRepository interface {
	GetByUserAndState(ctx context.Context, userID uuid.UUID, state domain.UserStatusState) (*domain.UserStatus, error)
	// SetCurrent upserts the CURRENT slot; clearUpcoming also removes any
	// UPCOMING slot in the same transaction (a direct write supersedes it).
	SetCurrent(ctx context.Context, status domain.UserStatus, clearUpcoming bool) error
	SetUpcoming(ctx context.Context, status domain.UserStatus) error
	ListDueUpcoming(ctx context.Context, now time.Time) ([]domain.UserStatus, error)
	ListExpiredCurrentOOO(ctx context.Context, now time.Time) ([]domain.UserStatus, error)
	CountByState(ctx context.Context, state domain.UserStatusState) (int64, error)
	// PromoteUpcoming re-checks applied_on <= now under a row lock, overwrites
	// CURRENT and deletes the UPCOMING slot. Returns the promoted status and
	// whether anything changed (false when a concurrent edit got there first).
	PromoteUpcoming(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.UserStatus, bool, error)
	// RevertExpiredOOO re-checks ends_on < now under a row lock and flips the
	// CURRENT slot back to ACTIVE.
	RevertExpiredOOO(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
}

type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	// ListByMeta returns entries of the given type whose meta contains every
	// key/value pair in the filter, newest first.
	ListByMeta(ctx context.Context, logType string, meta map[string]string, limit int) ([]domain.AuditEntry, error)
}

type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRepository interface {
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
}
