package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Username  string    `gorm:"column:username;uniqueIndex"`
	Role      string    `gorm:"column:role"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type taskModel struct {
	TaskID    uuid.UUID `gorm:"column:task_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string    `gorm:"column:title"`
	Assignee  uuid.UUID `gorm:"column:assignee"`
	Status    string    `gorm:"column:status"`
	EndsOn    int64     `gorm:"column:ends_on"`
	CreatedBy uuid.UUID `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (taskModel) TableName() string { return "tasks" }

type extensionRequestModel struct {
	RequestID     uuid.UUID  `gorm:"column:request_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaskID        uuid.UUID  `gorm:"column:task_id"`
	Assignee      uuid.UUID  `gorm:"column:assignee"`
	Title         string     `gorm:"column:title"`
	OldEndsOn     int64      `gorm:"column:old_ends_on"`
	NewEndsOn     int64      `gorm:"column:new_ends_on"`
	Reason        string     `gorm:"column:reason"`
	Status        string     `gorm:"column:status"`
	RequestNumber int        `gorm:"column:request_number"`
	CreatedBy     uuid.UUID  `gorm:"column:created_by"`
	ResolvedBy    *uuid.UUID `gorm:"column:resolved_by"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (extensionRequestModel) TableName() string { return "extension_requests" }

type userStatusModel struct {
	StatusID  uuid.UUID  `gorm:"column:status_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;uniqueIndex:idx_user_state"`
	Status    string     `gorm:"column:status"`
	State     string     `gorm:"column:state;uniqueIndex:idx_user_state"`
	Message   string     `gorm:"column:message"`
	AppliedOn time.Time  `gorm:"column:applied_on"`
	EndsOn    *time.Time `gorm:"column:ends_on"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (userStatusModel) TableName() string { return "user_statuses" }

type auditLogModel struct {
	LogID     uuid.UUID `gorm:"column:log_id;type:uuid;primaryKey"`
	Type      string    `gorm:"column:type"`
	Meta      string    `gorm:"column:meta;type:jsonb"`
	Body      string    `gorm:"column:body;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string { return "audit_logs" }

type outboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	FirstSeenAt  time.Time  `gorm:"column:first_seen_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    *string    `gorm:"column:last_error"`
}

func (outboxModel) TableName() string { return "service_outbox" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (idempotencyModel) TableName() string { return "service_idempotency" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "service_event_dedup" }
