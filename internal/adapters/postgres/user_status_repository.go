package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

type userStatusRepository struct {
	db *gorm.DB
}

func (r *userStatusRepository) GetByUserAndState(ctx context.Context, userID uuid.UUID, state domain.UserStatusState) (*domain.UserStatus, error) {
	var rec userStatusModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND state = ?", userID, string(state)).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := toDomainUserStatus(rec)
	return &out, nil
}

func (r *userStatusRepository) SetCurrent(ctx context.Context, status domain.UserStatus, clearUpcoming bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertStatus(tx, status, domain.StatusStateCurrent); err != nil {
			return err
		}
		if clearUpcoming {
			return tx.Where("user_id = ? AND state = ?", status.UserID, string(domain.StatusStateUpcoming)).
				Delete(&userStatusModel{}).Error
		}
		return nil
	})
}

func (r *userStatusRepository) SetUpcoming(ctx context.Context, status domain.UserStatus) error {
	return upsertStatus(r.db.WithContext(ctx), status, domain.StatusStateUpcoming)
}

// upsertStatus targets the (user_id, state) unique index, so each user holds
// at most one CURRENT and one UPCOMING row.
func upsertStatus(tx *gorm.DB, status domain.UserStatus, state domain.UserStatusState) error {
	rec := userStatusModel{
		UserID:    status.UserID,
		Status:    string(status.Status),
		State:     string(state),
		Message:   status.Message,
		AppliedOn: status.AppliedOn,
		EndsOn:    status.EndsOn,
		UpdatedAt: status.UpdatedAt,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "state"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "message", "applied_on", "ends_on", "updated_at"}),
	}).Create(&rec).Error
}

func (r *userStatusRepository) ListDueUpcoming(ctx context.Context, now time.Time) ([]domain.UserStatus, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ? AND applied_on <= ?", string(domain.StatusStateUpcoming), now))
}

func (r *userStatusRepository) ListExpiredCurrentOOO(ctx context.Context, now time.Time) ([]domain.UserStatus, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ? AND status = ? AND ends_on IS NOT NULL AND ends_on < ?",
			string(domain.StatusStateCurrent), string(domain.UserStatusOOO), now))
}

func (r *userStatusRepository) list(ctx context.Context, q *gorm.DB) ([]domain.UserStatus, error) {
	var rows []userStatusModel
	if err := q.Order("applied_on asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.UserStatus, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainUserStatus(row))
	}
	return out, nil
}

func (r *userStatusRepository) CountByState(ctx context.Context, state domain.UserStatusState) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userStatusModel{}).
		Where("state = ?", string(state)).
		Count(&count).Error
	return count, err
}

// PromoteUpcoming re-checks due-ness under a row lock so a concurrent sweep or
// a racing manual write wins cleanly; the second runner sees no row and walks
// away with changed=false.
func (r *userStatusRepository) PromoteUpcoming(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.UserStatus, bool, error) {
	var promoted *domain.UserStatus
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var upcoming userStatusModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND state = ?", userID, string(domain.StatusStateUpcoming)).
			Take(&upcoming).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if upcoming.AppliedOn.After(now) {
			return nil
		}

		doc := toDomainUserStatus(upcoming)
		doc.State = domain.StatusStateCurrent
		doc.UpdatedAt = now
		if err := upsertStatus(tx, doc, domain.StatusStateCurrent); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND state = ?", userID, string(domain.StatusStateUpcoming)).
			Delete(&userStatusModel{}).Error; err != nil {
			return err
		}
		promoted = &doc
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return promoted, changed, nil
}

// RevertExpiredOOO flips an expired CURRENT OOO back to ACTIVE. The expiry
// re-check under the lock makes the sweep idempotent.
func (r *userStatusRepository) RevertExpiredOOO(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current userStatusModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND state = ?", userID, string(domain.StatusStateCurrent)).
			Take(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if current.Status != string(domain.UserStatusOOO) || current.EndsOn == nil || !current.EndsOn.Before(now) {
			return nil
		}

		if err := tx.Model(&userStatusModel{}).
			Where("user_id = ? AND state = ?", userID, string(domain.StatusStateCurrent)).
			Updates(map[string]any{
				"status":     string(domain.UserStatusActive),
				"message":    "",
				"applied_on": domain.StartOfUTCDay(now),
				"ends_on":    nil,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

var _ ports.UserStatusRepository = (*userStatusRepository)(nil)
