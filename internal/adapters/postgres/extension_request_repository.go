package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

type extensionRequestRepository struct {
	db *gorm.DB
}

// Create locks the task row so concurrent creates for the same task serialize.
// The PENDING re-check and the count-based request_number both run under that
// lock, which keeps the per-task sequence gapless.
func (r *extensionRequestRepository) Create(ctx context.Context, params ports.CreateExtensionRequestParams) (domain.ExtensionRequest, error) {
	var rec extensionRequestModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task taskModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("task_id = ?", params.TaskID).Take(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTaskNotFound
			}
			return err
		}

		var pending int64
		if err := tx.Model(&extensionRequestModel{}).
			Where("task_id = ? AND status = ?", params.TaskID, string(domain.ExtensionStatusPending)).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return domain.ErrPendingRequestExists
		}

		var total int64
		if err := tx.Model(&extensionRequestModel{}).
			Where("task_id = ?", params.TaskID).
			Count(&total).Error; err != nil {
			return err
		}

		rec = extensionRequestModel{
			TaskID:        params.TaskID,
			Assignee:      params.Assignee,
			Title:         params.Title,
			OldEndsOn:     params.OldEndsOn,
			NewEndsOn:     params.NewEndsOn,
			Reason:        params.Reason,
			Status:        string(domain.ExtensionStatusPending),
			RequestNumber: int(total) + 1,
			CreatedBy:     params.CreatedBy,
			CreatedAt:     params.Now,
			UpdatedAt:     params.Now,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return appendAuditTx(tx, extensionAuditEntry(rec, "create", params.CreatedBy, nil))
	})
	if err != nil {
		return domain.ExtensionRequest{}, err
	}
	return toDomainExtensionRequest(rec), nil
}

func (r *extensionRequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (domain.ExtensionRequest, error) {
	var rec extensionRequestModel
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ExtensionRequest{}, domain.ErrNotFound
		}
		return domain.ExtensionRequest{}, err
	}
	return toDomainExtensionRequest(rec), nil
}

func (r *extensionRequestRepository) GetLatestByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.ExtensionRequest, error) {
	return r.latest(ctx, r.db.WithContext(ctx).Where("task_id = ?", taskID))
}

// GetLatestResolvedByTaskID feeds the ETA floor for detail edits. It matches
// the creation-time rule: the latest APPROVED or DENIED request decides, and
// EtaFloor only raises the floor when that request was approved.
func (r *extensionRequestRepository) GetLatestResolvedByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.ExtensionRequest, error) {
	resolved := []string{string(domain.ExtensionStatusApproved), string(domain.ExtensionStatusDenied)}
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("task_id = ? AND status IN ?", taskID, resolved))
}

func (r *extensionRequestRepository) GetLatestByAssignee(ctx context.Context, assignee uuid.UUID) (*domain.ExtensionRequest, error) {
	return r.latest(ctx, r.db.WithContext(ctx).Where("assignee = ?", assignee))
}

func (r *extensionRequestRepository) latest(ctx context.Context, q *gorm.DB) (*domain.ExtensionRequest, error) {
	var rec extensionRequestModel
	if err := q.Order("created_at desc, request_id desc").Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := toDomainExtensionRequest(rec)
	return &out, nil
}

// Resolve locks the request row, rejects terminal states, and on approval
// advances the task's ends_on in the same transaction. Audit rows ride the
// transaction too.
func (r *extensionRequestRepository) Resolve(ctx context.Context, params ports.ResolveExtensionRequestParams) (domain.ExtensionRequest, error) {
	var rec extensionRequestModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", params.RequestID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if rec.Status != string(domain.ExtensionStatusPending) {
			return domain.ErrAlreadyResolved
		}

		oldStatus := rec.Status
		rec.Status = string(params.NewStatus)
		rec.ResolvedBy = &params.ResolvedBy
		rec.ResolvedAt = &params.Now
		rec.UpdatedAt = params.Now
		if err := tx.Model(&extensionRequestModel{}).
			Where("request_id = ?", rec.RequestID).
			Updates(map[string]any{
				"status":      rec.Status,
				"resolved_by": params.ResolvedBy,
				"resolved_at": params.Now,
				"updated_at":  params.Now,
			}).Error; err != nil {
			return err
		}

		if params.NewStatus == domain.ExtensionStatusApproved {
			if err := tx.Model(&taskModel{}).
				Where("task_id = ?", rec.TaskID).
				Updates(map[string]any{"ends_on": rec.NewEndsOn, "updated_at": params.Now}).Error; err != nil {
				return err
			}
		}

		action := "deny"
		if params.NewStatus == domain.ExtensionStatusApproved {
			action = "approve"
		}
		return appendAuditTx(tx, extensionAuditEntry(rec, action, params.ResolvedBy, map[string]any{
			"oldStatus": oldStatus,
			"newStatus": rec.Status,
		}))
	})
	if err != nil {
		return domain.ExtensionRequest{}, err
	}
	return toDomainExtensionRequest(rec), nil
}

type detailChange struct {
	field    string
	label    string
	oldValue any
	newValue any
}

// UpdateDetails amends title/reason/newEndsOn of a PENDING request under a row
// lock. Every changed field gets its own audit row with old<Field>/new<Field>
// in the body, so consumers can count and filter edits per field.
func (r *extensionRequestRepository) UpdateDetails(ctx context.Context, params ports.UpdateExtensionDetailsParams) (domain.ExtensionRequest, error) {
	var rec extensionRequestModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", params.RequestID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if rec.Status != string(domain.ExtensionStatusPending) {
			return domain.ErrAlreadyResolved
		}

		updates := map[string]any{"updated_at": params.Now}
		var changed []detailChange
		if params.Title != nil && strings.TrimSpace(*params.Title) != rec.Title {
			changed = append(changed, detailChange{"title", "Title", rec.Title, strings.TrimSpace(*params.Title)})
			rec.Title = strings.TrimSpace(*params.Title)
			updates["title"] = rec.Title
		}
		if params.Reason != nil && strings.TrimSpace(*params.Reason) != rec.Reason {
			changed = append(changed, detailChange{"reason", "Reason", rec.Reason, strings.TrimSpace(*params.Reason)})
			rec.Reason = strings.TrimSpace(*params.Reason)
			updates["reason"] = rec.Reason
		}
		if params.NewEndsOn != nil && *params.NewEndsOn != rec.NewEndsOn {
			changed = append(changed, detailChange{"newEndsOn", "NewEndsOn", rec.NewEndsOn, *params.NewEndsOn})
			rec.NewEndsOn = *params.NewEndsOn
			updates["new_ends_on"] = rec.NewEndsOn
		}
		if len(changed) == 0 {
			return nil
		}
		rec.UpdatedAt = params.Now
		if err := tx.Model(&extensionRequestModel{}).
			Where("request_id = ?", rec.RequestID).
			Updates(updates).Error; err != nil {
			return err
		}
		for _, change := range changed {
			detail := map[string]any{"field": change.field}
			detail["old"+change.label] = change.oldValue
			detail["new"+change.label] = change.newValue
			if err := appendAuditTx(tx, extensionAuditEntry(rec, "update", params.EditedBy, detail)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ExtensionRequest{}, err
	}
	return toDomainExtensionRequest(rec), nil
}

// List pages over (created_at, request_id); the cursor is the last returned
// request id, and the follow-up query anchors on that row's sort key.
func (r *extensionRequestRepository) List(ctx context.Context, filter ports.ExtensionRequestFilter) (ports.ExtensionRequestPage, error) {
	q := r.db.WithContext(ctx).Model(&extensionRequestModel{})
	if filter.Assignee != nil {
		q = q.Where("assignee = ?", *filter.Assignee)
	}
	if filter.TaskID != nil {
		q = q.Where("task_id = ?", *filter.TaskID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		q = q.Where("status IN ?", statuses)
	}

	order := "created_at desc, request_id desc"
	cmp := "<"
	if filter.Order == "asc" {
		order = "created_at asc, request_id asc"
		cmp = ">"
	}
	if filter.Cursor != "" {
		anchorID, err := uuid.Parse(filter.Cursor)
		if err != nil {
			return ports.ExtensionRequestPage{}, domain.ErrInvalidInput
		}
		var anchor extensionRequestModel
		if err := r.db.WithContext(ctx).Where("request_id = ?", anchorID).Take(&anchor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ExtensionRequestPage{}, domain.ErrInvalidInput
			}
			return ports.ExtensionRequestPage{}, err
		}
		q = q.Where("(created_at, request_id) "+cmp+" (?, ?)", anchor.CreatedAt, anchor.RequestID)
	}

	var rows []extensionRequestModel
	if err := q.Order(order).Limit(filter.Size + 1).Find(&rows).Error; err != nil {
		return ports.ExtensionRequestPage{}, err
	}
	page := ports.ExtensionRequestPage{}
	hasMore := len(rows) > filter.Size
	if hasMore {
		rows = rows[:filter.Size]
	}
	for _, row := range rows {
		page.Requests = append(page.Requests, toDomainExtensionRequest(row))
	}
	if hasMore && len(rows) > 0 {
		page.NextCursor = rows[len(rows)-1].RequestID.String()
	}
	return page, nil
}

func extensionAuditEntry(rec extensionRequestModel, action string, actor uuid.UUID, detail map[string]any) domain.AuditEntry {
	body := map[string]any{
		"requestNumber": rec.RequestNumber,
		"oldEndsOn":     rec.OldEndsOn,
		"newEndsOn":     rec.NewEndsOn,
		"status":        rec.Status,
	}
	for key, value := range detail {
		body[key] = value
	}
	raw, _ := json.Marshal(body)
	return domain.AuditEntry{
		LogID: uuid.New(),
		Type:  domain.AuditTypeExtensionRequests,
		Meta: map[string]string{
			"taskId":             rec.TaskID.String(),
			"extensionRequestId": rec.RequestID.String(),
			"userId":             rec.Assignee.String(),
			"actorId":            actor.String(),
			"action":             action,
		},
		Body:      raw,
		CreatedAt: rec.UpdatedAt,
	}
}

var _ ports.ExtensionRequestRepository = (*extensionRequestRepository)(nil)
