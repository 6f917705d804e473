package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crewhub/membership-service/internal/application"
)

// SweepWorker runs the user-status sweep on an interval: due UPCOMING rows are
// promoted and expired OOO rows reverted. The sweep is idempotent, so overlap
// with the manual super-user trigger is harmless.
type SweepWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewSweepWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepWorker{logger: logger, service: service, interval: interval}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		result, err := w.service.SweepUserStatuses(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			w.logger.ErrorContext(ctx, "status sweep failed",
				"module", "events.sweep_worker",
				"layer", "adapter",
				"operation", "sweep",
				"outcome", "failure",
				"error", err,
			)
		case err == nil && result.NoOfUserStatusUpdated > 0:
			w.logger.InfoContext(ctx, "status sweep applied changes",
				"module", "events.sweep_worker",
				"layer", "adapter",
				"operation", "sweep",
				"outcome", "success",
				"updated", result.NoOfUserStatusUpdated,
				"ooo_altered", result.OooUsersAltered,
				"non_ooo_altered", result.NonOooUsersAltered,
				"future_left", result.FutureStatusLeft,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
