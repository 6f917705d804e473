package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

func cacheKeyStatus(userID uuid.UUID) string {
	return "status:user:" + userID.String()
}

// SetUserStatus writes the CURRENT slot when appliedOn is today and the
// UPCOMING slot otherwise. A direct CURRENT write supersedes any scheduled
// UPCOMING entry.
func (s *Service) SetUserStatus(ctx context.Context, claims ports.AuthClaims, targetUserID string, req SetUserStatusRequest, idempotencyKey string) (SetUserStatusResult, error) {
	if strings.EqualFold(targetUserID, "self") {
		return SetUserStatusResult{}, fmt.Errorf("%w: use your resolved user id, not the self literal", domain.ErrUnauthorized)
	}
	cal, err := callerFromClaims(claims)
	if err != nil {
		return SetUserStatusResult{}, err
	}
	userID, err := uuid.Parse(targetUserID)
	if err != nil {
		return SetUserStatusResult{}, fmt.Errorf("%w: invalid userId", domain.ErrInvalidInput)
	}
	if !cal.super && cal.userID != userID {
		return SetUserStatusResult{}, fmt.Errorf("%w: only the user or a super-user may update a status", domain.ErrForbidden)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return SetUserStatusResult{}, err
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return SetUserStatusResult{}, err
	}

	kind := domain.UserStatusKind(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err := domain.ValidateManualStatus(kind); err != nil {
		return SetUserStatusResult{}, err
	}

	now := s.nowFn()
	appliedOn := domain.StartOfUTCDay(req.AppliedOn)
	var endsOn *time.Time
	if kind == domain.UserStatusOOO && req.EndsOn != nil {
		end := domain.EndOfUTCDay(*req.EndsOn)
		endsOn = &end
	}
	if err := domain.ValidateStatusWindow(kind, appliedOn, endsOn, req.Message, now); err != nil {
		return SetUserStatusResult{}, err
	}

	doc := domain.UserStatus{
		UserID:    userID,
		Status:    kind,
		Message:   strings.TrimSpace(req.Message),
		AppliedOn: appliedOn,
		EndsOn:    endsOn,
		UpdatedAt: now,
	}

	var result SetUserStatusResult
	if domain.SameUTCDay(appliedOn, now) {
		doc.State = domain.StatusStateCurrent
		if err := s.statuses.SetCurrent(ctx, doc, true); err != nil {
			return SetUserStatusResult{}, err
		}
		result = SetUserStatusResult{Status: toUserStatusResponse(doc), Created: true, Message: "User Status created"}
	} else {
		doc.State = domain.StatusStateUpcoming
		if err := s.statuses.SetUpcoming(ctx, doc); err != nil {
			return SetUserStatusResult{}, err
		}
		result = SetUserStatusResult{Status: toUserStatusResponse(doc), Created: false, Message: "Future Status of user updated"}
	}

	s.appendStatusAudit(ctx, userID, cal.userID, "update", doc)
	_ = s.enqueueEvent(ctx, "user_status.updated", userID.String(), result.Status)
	_ = s.cache.Delete(ctx, cacheKeyStatus(userID))
	return result, nil
}

// GetUserStatus returns only the CURRENT slot. The "self" literal is a
// caller-context shortcut resolved by the HTTP layer; as a storage key it is
// simply absent.
func (s *Service) GetUserStatus(ctx context.Context, targetUserID string) (UserStatusResponse, error) {
	userID, err := uuid.Parse(targetUserID)
	if err != nil {
		return UserStatusResponse{}, domain.ErrNotFound
	}

	if cached, cacheErr := s.cache.Get(ctx, cacheKeyStatus(userID)); cacheErr == nil && cached != "" {
		var resp UserStatusResponse
		if json.Unmarshal([]byte(cached), &resp) == nil {
			return resp, nil
		}
	}

	current, err := s.statuses.GetByUserAndState(ctx, userID, domain.StatusStateCurrent)
	if err != nil {
		return UserStatusResponse{}, err
	}
	if current == nil {
		return UserStatusResponse{}, domain.ErrNotFound
	}
	resp := toUserStatusResponse(*current)
	if raw, marshalErr := json.Marshal(resp); marshalErr == nil {
		_ = s.cache.Set(ctx, cacheKeyStatus(userID), string(raw), s.cfg.StatusCacheTTL)
	}
	return resp, nil
}

// SweepUserStatuses promotes due UPCOMING statuses and reverts elapsed OOO
// periods. Each user is handled in its own repository transaction, so the
// sweep tolerates concurrent user edits and is idempotent: a second run with
// the same clock finds nothing due.
func (s *Service) SweepUserStatuses(ctx context.Context) (StatusSweepResponse, error) {
	now := s.nowFn()
	var resp StatusSweepResponse

	due, err := s.statuses.ListDueUpcoming(ctx, now)
	if err != nil {
		return StatusSweepResponse{}, err
	}
	for _, upcoming := range due {
		promoted, changed, promoteErr := s.statuses.PromoteUpcoming(ctx, upcoming.UserID, now)
		if promoteErr != nil {
			return resp, promoteErr
		}
		if !changed {
			continue
		}
		resp.NonOooUsersAltered++
		resp.NoOfUserStatusUpdated++
		s.appendStatusAudit(ctx, upcoming.UserID, uuid.Nil, "promote", *promoted)
		_ = s.cache.Delete(ctx, cacheKeyStatus(upcoming.UserID))
	}

	expired, err := s.statuses.ListExpiredCurrentOOO(ctx, now)
	if err != nil {
		return resp, err
	}
	for _, current := range expired {
		changed, revertErr := s.statuses.RevertExpiredOOO(ctx, current.UserID, now)
		if revertErr != nil {
			return resp, revertErr
		}
		if !changed {
			continue
		}
		resp.OooUsersAltered++
		resp.NoOfUserStatusUpdated++
		s.appendStatusAudit(ctx, current.UserID, uuid.Nil, "expire", domain.UserStatus{
			UserID: current.UserID, Status: domain.UserStatusActive, State: domain.StatusStateCurrent, AppliedOn: now, UpdatedAt: now,
		})
		_ = s.cache.Delete(ctx, cacheKeyStatus(current.UserID))
	}

	left, err := s.statuses.CountByState(ctx, domain.StatusStateUpcoming)
	if err != nil {
		return resp, err
	}
	resp.FutureStatusLeft = left
	return resp, nil
}

func (s *Service) appendStatusAudit(ctx context.Context, userID, actor uuid.UUID, action string, doc domain.UserStatus) {
	body, _ := json.Marshal(toUserStatusResponse(doc))
	meta := map[string]string{
		"userId": userID.String(),
		"action": action,
	}
	if actor != uuid.Nil {
		meta["createdBy"] = actor.String()
	}
	err := s.audits.Append(ctx, domain.AuditEntry{
		LogID:     uuid.New(),
		Type:      domain.AuditTypeUserStatus,
		Meta:      meta,
		Body:      body,
		CreatedAt: s.nowFn(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "status audit append failed",
			"module", "application.status",
			"layer", "service",
			"operation", action,
			"outcome", "failure",
			"error", err.Error(),
			"user_id", userID.String(),
		)
	}
}
