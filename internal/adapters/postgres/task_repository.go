package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) Create(ctx context.Context, params ports.CreateTaskParams) (domain.Task, error) {
	rec := taskModel{
		Title:     strings.TrimSpace(params.Title),
		Assignee:  params.Assignee,
		Status:    params.Status,
		EndsOn:    params.EndsOn,
		CreatedBy: params.CreatedBy,
		CreatedAt: params.Now,
		UpdatedAt: params.Now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Task{}, err
	}
	return toDomainTask(rec), nil
}

func (r *taskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (domain.Task, error) {
	var rec taskModel
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	return toDomainTask(rec), nil
}

func (r *taskRepository) List(ctx context.Context, limit, offset int) ([]domain.Task, error) {
	var rows []taskModel
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainTask(row))
	}
	return out, nil
}

var _ ports.TaskRepository = (*taskRepository)(nil)
