package application

import (
	"log/slog"
	"time"

	"github.com/crewhub/membership-service/internal/ports"
)

type Service struct {
	cfg         Config
	logger      *slog.Logger
	tasks       ports.TaskRepository
	users       ports.UserRepository
	extensions  ports.ExtensionRequestRepository
	statuses    ports.UserStatusRepository
	audits      ports.AuditLogRepository
	outbox      ports.OutboxRepository
	eventDedup  ports.EventDedupRepository
	idempotency ports.IdempotencyRepository
	tokens      ports.TokenVerifier
	cache       ports.Cache
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Logger      *slog.Logger
	Tasks       ports.TaskRepository
	Users       ports.UserRepository
	Extensions  ports.ExtensionRequestRepository
	Statuses    ports.UserStatusRepository
	Audits      ports.AuditLogRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
	Tokens      ports.TokenVerifier
	Cache       ports.Cache
	// Now overrides the clock; tests inject a fixed instant here.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "membership-service"
	}
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = 5 * time.Minute
	}
	if cfg.TaskCacheTTL <= 0 {
		cfg.TaskCacheTTL = time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:         cfg,
		logger:      logger,
		tasks:       deps.Tasks,
		users:       deps.Users,
		extensions:  deps.Extensions,
		statuses:    deps.Statuses,
		audits:      deps.Audits,
		outbox:      deps.Outbox,
		eventDedup:  deps.EventDedup,
		idempotency: deps.Idempotency,
		tokens:      deps.Tokens,
		cache:       deps.Cache,
		nowFn:       nowFn,
	}
}
