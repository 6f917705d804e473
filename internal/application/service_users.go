package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

type userRegisteredEvent struct {
	EventID string `json:"event_id"`
	Data    struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"data"`
}

// HandleUserRegistered provisions the local user row from the auth service's
// event stream and seeds an ONBOARDING CURRENT status. Duplicate deliveries
// are dropped via the dedup table.
func (s *Service) HandleUserRegistered(ctx context.Context, payload []byte) error {
	var evt userRegisteredEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid user.registered payload", domain.ErrInvalidInput)
	}
	dup, err := s.eventDedup.IsDuplicate(ctx, evt.EventID, s.nowFn())
	if err != nil {
		return err
	}
	if dup {
		return nil
	}
	userID, err := uuid.Parse(evt.Data.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid user_id", domain.ErrInvalidInput)
	}
	role := strings.ToUpper(strings.TrimSpace(evt.Data.Role))
	if role != domain.RoleSuperUser {
		role = domain.RoleMember
	}

	now := s.nowFn()
	_, err = s.users.Create(ctx, ports.CreateUserParams{
		UserID:   userID,
		Username: strings.ToLower(strings.TrimSpace(evt.Data.Username)),
		Role:     role,
		Now:      now,
	})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return err
	}

	_ = s.statuses.SetCurrent(ctx, domain.UserStatus{
		UserID:    userID,
		Status:    domain.UserStatusOnboarding,
		State:     domain.StatusStateCurrent,
		AppliedOn: domain.StartOfUTCDay(now),
		UpdatedAt: now,
	}, false)
	_ = s.eventDedup.MarkProcessed(ctx, evt.EventID, "user.registered", now.Add(s.cfg.EventDedupTTL))
	return nil
}
