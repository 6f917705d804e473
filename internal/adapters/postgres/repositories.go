package postgres

import (
	"gorm.io/gorm"

	"github.com/crewhub/membership-service/internal/ports"
)

type Repositories struct {
	Users       ports.UserRepository
	Tasks       ports.TaskRepository
	Extensions  ports.ExtensionRequestRepository
	Statuses    ports.UserStatusRepository
	Audits      ports.AuditLogRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:       &userRepository{db: db},
		Tasks:       &taskRepository{db: db},
		Extensions:  &extensionRequestRepository{db: db},
		Statuses:    &userStatusRepository{db: db},
		Audits:      &auditLogRepository{db: db},
		Outbox:      &outboxRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}
