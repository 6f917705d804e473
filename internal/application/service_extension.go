package application

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

// CreateExtensionRequest validates the floor and ownership rules, then hands
// the single-PENDING and numbering invariants to the repository transaction.
// Retries after a timeout are safe: a second attempt trips the duplicate
// PENDING check deterministically.
func (s *Service) CreateExtensionRequest(ctx context.Context, claims ports.AuthClaims, req CreateExtensionRequestRequest, idempotencyKey string) (ExtensionRequestResponse, error) {
	if err := domain.ValidateExtensionTitle(req.Title); err != nil {
		return ExtensionRequestResponse{}, err
	}
	if err := domain.ValidateExtensionReason(req.Reason); err != nil {
		return ExtensionRequestResponse{}, err
	}
	if req.OldEndsOn <= 0 || req.NewEndsOn <= 0 {
		return ExtensionRequestResponse{}, fmt.Errorf("%w: oldEndsOn and newEndsOn must be positive unix timestamps", domain.ErrInvalidInput)
	}
	cal, err := callerFromClaims(claims)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return ExtensionRequestResponse{}, err
	}

	assignee, err := s.resolveUserRef(ctx, req.Assignee)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return ExtensionRequestResponse{}, fmt.Errorf("%w: invalid taskId", domain.ErrTaskNotFound)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}

	if !cal.super && cal.userID != assignee.UserID {
		return ExtensionRequestResponse{}, fmt.Errorf("%w: only the assignee or a super-user may request an extension", domain.ErrForbidden)
	}
	if assignee.UserID != task.Assignee {
		return ExtensionRequestResponse{}, domain.ErrAssigneeMismatch
	}

	latest, err := s.extensions.GetLatestByTaskID(ctx, taskID)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	if latest != nil && latest.Status == domain.ExtensionStatusPending {
		return ExtensionRequestResponse{}, domain.ErrPendingRequestExists
	}
	floor := domain.EtaFloor(latest, req.OldEndsOn)
	if err := domain.ValidateNewEta(req.NewEndsOn, floor); err != nil {
		return ExtensionRequestResponse{}, err
	}

	created, err := s.extensions.Create(ctx, ports.CreateExtensionRequestParams{
		TaskID:    taskID,
		Assignee:  assignee.UserID,
		Title:     strings.TrimSpace(req.Title),
		OldEndsOn: req.OldEndsOn,
		NewEndsOn: req.NewEndsOn,
		Reason:    strings.TrimSpace(req.Reason),
		CreatedBy: cal.userID,
		Now:       s.nowFn(),
	})
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	_ = s.enqueueEvent(ctx, "extension_request.created", taskID.String(), toExtensionRequestResponse(created))
	return toExtensionRequestResponse(created), nil
}

func (s *Service) GetExtensionRequest(ctx context.Context, requestID string) (ExtensionRequestResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return ExtensionRequestResponse{}, domain.ErrNotFound
	}
	req, err := s.extensions.GetByID(ctx, id)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	return toExtensionRequestResponse(req), nil
}

// UpdateExtensionRequestStatus resolves a PENDING request. Approval is the only
// code path anywhere that advances the task's ETA.
func (s *Service) UpdateExtensionRequestStatus(ctx context.Context, claims ports.AuthClaims, requestID string, req UpdateExtensionStatusRequest) (ExtensionRequestResponse, error) {
	cal, err := callerFromClaims(claims)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	if !cal.super {
		return ExtensionRequestResponse{}, fmt.Errorf("%w: super-user role required", domain.ErrUnauthorized)
	}
	id, err := uuid.Parse(requestID)
	if err != nil {
		return ExtensionRequestResponse{}, domain.ErrNotFound
	}
	newStatus := domain.ExtensionStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if newStatus != domain.ExtensionStatusApproved && newStatus != domain.ExtensionStatusDenied {
		return ExtensionRequestResponse{}, fmt.Errorf("%w: status must be APPROVED or DENIED", domain.ErrInvalidStatus)
	}

	resolved, err := s.extensions.Resolve(ctx, ports.ResolveExtensionRequestParams{
		RequestID:  id,
		NewStatus:  newStatus,
		ResolvedBy: cal.userID,
		Now:        s.nowFn(),
	})
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	eventType := "extension_request.denied"
	if newStatus == domain.ExtensionStatusApproved {
		eventType = "extension_request.approved"
		_ = s.cache.Delete(ctx, cacheKeyTask(resolved.TaskID))
	}
	_ = s.enqueueEvent(ctx, eventType, resolved.TaskID.String(), toExtensionRequestResponse(resolved))
	return toExtensionRequestResponse(resolved), nil
}

// UpdateExtensionRequestDetails lets a super-user amend descriptive fields of
// a still-PENDING request. Status changes and reassignment are rejected here;
// a new ETA re-runs the same floor rule as creation.
func (s *Service) UpdateExtensionRequestDetails(ctx context.Context, claims ports.AuthClaims, requestID string, req UpdateExtensionDetailsRequest) (ExtensionRequestResponse, error) {
	cal, err := callerFromClaims(claims)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	if !cal.super {
		return ExtensionRequestResponse{}, fmt.Errorf("%w: super-user role required", domain.ErrUnauthorized)
	}
	if req.Status != nil {
		return ExtensionRequestResponse{}, domain.ErrInvalidPatch
	}
	id, err := uuid.Parse(requestID)
	if err != nil {
		return ExtensionRequestResponse{}, domain.ErrNotFound
	}
	existing, err := s.extensions.GetByID(ctx, id)
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	if req.Assignee != nil {
		target, resolveErr := s.resolveUserRef(ctx, *req.Assignee)
		if resolveErr != nil {
			return ExtensionRequestResponse{}, resolveErr
		}
		if target.UserID != existing.Assignee {
			return ExtensionRequestResponse{}, domain.ErrAssigneeImmutable
		}
	}
	if existing.Status.Resolved() {
		return ExtensionRequestResponse{}, domain.ErrAlreadyResolved
	}
	if req.Title != nil {
		if err := domain.ValidateExtensionTitle(*req.Title); err != nil {
			return ExtensionRequestResponse{}, err
		}
	}
	if req.Reason != nil {
		if err := domain.ValidateExtensionReason(*req.Reason); err != nil {
			return ExtensionRequestResponse{}, err
		}
	}
	if req.NewEndsOn != nil {
		latestResolved, rErr := s.extensions.GetLatestResolvedByTaskID(ctx, existing.TaskID)
		if rErr != nil {
			return ExtensionRequestResponse{}, rErr
		}
		floor := domain.EtaFloor(latestResolved, existing.OldEndsOn)
		if err := domain.ValidateNewEta(*req.NewEndsOn, floor); err != nil {
			return ExtensionRequestResponse{}, err
		}
	}

	updated, err := s.extensions.UpdateDetails(ctx, ports.UpdateExtensionDetailsParams{
		RequestID: id,
		Title:     req.Title,
		Reason:    req.Reason,
		NewEndsOn: req.NewEndsOn,
		EditedBy:  cal.userID,
		Now:       s.nowFn(),
	})
	if err != nil {
		return ExtensionRequestResponse{}, err
	}
	return toExtensionRequestResponse(updated), nil
}

func (s *Service) ListExtensionRequests(ctx context.Context, query ListExtensionRequestsQuery) (ExtensionRequestListResponse, error) {
	filter := ports.ExtensionRequestFilter{
		Cursor: query.Cursor,
		Size:   query.Size,
		Order:  strings.ToLower(query.Order),
	}
	if filter.Size <= 0 {
		filter.Size = s.cfg.DefaultPageSize
	}
	if filter.Size > s.cfg.MaxPageSize {
		filter.Size = s.cfg.MaxPageSize
	}
	if filter.Order != "asc" {
		filter.Order = "desc"
	}
	if query.Assignee != "" {
		user, err := s.resolveUserRef(ctx, query.Assignee)
		if err != nil {
			return ExtensionRequestListResponse{}, err
		}
		filter.Assignee = &user.UserID
	}
	if query.TaskID != "" {
		taskID, err := uuid.Parse(query.TaskID)
		if err != nil {
			return ExtensionRequestListResponse{}, fmt.Errorf("%w: invalid taskId", domain.ErrTaskNotFound)
		}
		filter.TaskID = &taskID
	}
	for _, raw := range query.Statuses {
		status := domain.ExtensionStatus(strings.ToUpper(strings.TrimSpace(raw)))
		switch status {
		case domain.ExtensionStatusPending, domain.ExtensionStatusApproved, domain.ExtensionStatusDenied:
			filter.Statuses = append(filter.Statuses, status)
		default:
			return ExtensionRequestListResponse{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, raw)
		}
	}

	page, err := s.extensions.List(ctx, filter)
	if err != nil {
		return ExtensionRequestListResponse{}, err
	}
	resp := ExtensionRequestListResponse{Requests: make([]ExtensionRequestResponse, 0, len(page.Requests))}
	for _, req := range page.Requests {
		resp.Requests = append(resp.Requests, toExtensionRequestResponse(req))
	}
	if page.NextCursor != "" {
		resp.Next = nextPageLink(query, page.NextCursor, filter.Size, filter.Order)
	}
	return resp, nil
}

// nextPageLink re-encodes the original query with the cursor advanced to the
// last returned document, so the follow-up request preserves ordering.
func nextPageLink(query ListExtensionRequestsQuery, cursor string, size int, order string) string {
	values := url.Values{}
	values.Set("cursor", cursor)
	values.Set("size", strconv.Itoa(size))
	values.Set("order", order)
	if query.Assignee != "" {
		values.Set("assignee", query.Assignee)
	}
	if query.TaskID != "" {
		values.Set("taskId", query.TaskID)
	}
	if len(query.Statuses) > 0 {
		values.Set("status", strings.Join(query.Statuses, ","))
	}
	return "/extension-requests?" + values.Encode()
}

// GetSelfExtensionRequests is the deliberate latest-only view: the caller gets
// the single most recent request (per task when taskId is given), and nothing
// at all when that latest request belongs to someone else.
func (s *Service) GetSelfExtensionRequests(ctx context.Context, claims ports.AuthClaims, taskID string) ([]ExtensionRequestResponse, error) {
	cal, err := callerFromClaims(claims)
	if err != nil {
		return nil, err
	}

	var latest *domain.ExtensionRequest
	if taskID != "" {
		id, parseErr := uuid.Parse(taskID)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid taskId", domain.ErrTaskNotFound)
		}
		latest, err = s.extensions.GetLatestByTaskID(ctx, id)
	} else {
		latest, err = s.extensions.GetLatestByAssignee(ctx, cal.userID)
	}
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Assignee != cal.userID {
		return []ExtensionRequestResponse{}, nil
	}
	return []ExtensionRequestResponse{toExtensionRequestResponse(*latest)}, nil
}
