package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

func cacheKeyTask(taskID uuid.UUID) string {
	return "task:" + taskID.String()
}

func (s *Service) CreateTask(ctx context.Context, claims ports.AuthClaims, req CreateTaskRequest) (TaskResponse, error) {
	cal, err := callerFromClaims(claims)
	if err != nil {
		return TaskResponse{}, err
	}
	if !cal.super {
		return TaskResponse{}, fmt.Errorf("%w: super-user role required", domain.ErrForbidden)
	}
	if strings.TrimSpace(req.Title) == "" {
		return TaskResponse{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if req.EndsOn <= 0 {
		return TaskResponse{}, fmt.Errorf("%w: endsOn must be a positive unix timestamp", domain.ErrInvalidInput)
	}
	assignee, err := s.resolveUserRef(ctx, req.Assignee)
	if err != nil {
		return TaskResponse{}, err
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = "IN_PROGRESS"
	}
	task, err := s.tasks.Create(ctx, ports.CreateTaskParams{
		Title:     strings.TrimSpace(req.Title),
		Assignee:  assignee.UserID,
		Status:    status,
		EndsOn:    req.EndsOn,
		CreatedBy: cal.userID,
		Now:       s.nowFn(),
	})
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

func (s *Service) GetTask(ctx context.Context, taskID string) (TaskResponse, error) {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return TaskResponse{}, domain.ErrNotFound
	}
	if cached, cacheErr := s.cache.Get(ctx, cacheKeyTask(id)); cacheErr == nil && cached != "" {
		var resp TaskResponse
		if json.Unmarshal([]byte(cached), &resp) == nil {
			return resp, nil
		}
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return TaskResponse{}, err
	}
	resp := toTaskResponse(task)
	if raw, marshalErr := json.Marshal(resp); marshalErr == nil {
		_ = s.cache.Set(ctx, cacheKeyTask(id), string(raw), s.cfg.TaskCacheTTL)
	}
	return resp, nil
}

// ListAuditLogs exposes the append-only log by meta-field equality; consumers
// filter on taskId/extensionRequestId/userId directly.
func (s *Service) ListAuditLogs(ctx context.Context, logType string, meta map[string]string, limit int) ([]AuditLogView, error) {
	if logType != domain.AuditTypeExtensionRequests && logType != domain.AuditTypeUserStatus {
		return nil, fmt.Errorf("%w: unknown log type %q", domain.ErrInvalidInput, logType)
	}
	if limit <= 0 || limit > s.cfg.MaxPageSize {
		limit = s.cfg.DefaultPageSize
	}
	entries, err := s.audits.ListByMeta(ctx, logType, meta, limit)
	if err != nil {
		return nil, err
	}
	out := make([]AuditLogView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, AuditLogView{
			Type:      entry.Type,
			Meta:      entry.Meta,
			Body:      entry.Body,
			Timestamp: entry.CreatedAt,
		})
	}
	return out, nil
}
