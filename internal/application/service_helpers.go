package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

func hashRequest(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (s *Service) reserveIdempotency(ctx context.Context, key string, request any) error {
	if key == "" {
		return nil
	}
	err := s.idempotency.Reserve(ctx, key, hashRequest(request), s.nowFn().Add(s.cfg.IdempotencyTTL))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIdempotencyConflict, err)
	}
	return nil
}

// enqueueEvent writes a domain event to the outbox; the worker publishes it to
// Kafka. Enqueue failures are the caller's choice to ignore (best effort) —
// the audit trail, not the event stream, is the system of record.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, data any) error {
	occurredAt := s.nowFn()
	envelope := map[string]any{
		"event_id":       uuid.NewString(),
		"event_type":     eventType,
		"occurred_at":    occurredAt.Format(time.RFC3339),
		"source_service": s.cfg.ServiceName,
		"partition_key":  partitionKey,
		"data":           data,
	}
	payload, _ := json.Marshal(envelope)
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		OccurredAt:   occurredAt,
	})
}

func toExtensionRequestResponse(req domain.ExtensionRequest) ExtensionRequestResponse {
	resp := ExtensionRequestResponse{
		ID:            req.RequestID.String(),
		TaskID:        req.TaskID.String(),
		Assignee:      req.Assignee.String(),
		Title:         req.Title,
		OldEndsOn:     req.OldEndsOn,
		NewEndsOn:     req.NewEndsOn,
		Reason:        req.Reason,
		Status:        string(req.Status),
		RequestNumber: req.RequestNumber,
		CreatedBy:     req.CreatedBy.String(),
		ResolvedAt:    req.ResolvedAt,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
	if req.ResolvedBy != nil {
		resp.ResolvedBy = req.ResolvedBy.String()
	}
	return resp
}

func toUserStatusResponse(status domain.UserStatus) UserStatusResponse {
	return UserStatusResponse{
		UserID:    status.UserID.String(),
		Status:    string(status.Status),
		State:     string(status.State),
		Message:   status.Message,
		AppliedOn: status.AppliedOn,
		EndsOn:    status.EndsOn,
		UpdatedAt: status.UpdatedAt,
	}
}

func toTaskResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:        task.TaskID.String(),
		Title:     task.Title,
		Assignee:  task.Assignee.String(),
		Status:    task.Status,
		EndsOn:    task.EndsOn,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}
