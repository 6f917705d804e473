package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

type auditLogRepository struct {
	db *gorm.DB
}

// appendAuditTx lets the extension-request repository write its audit rows
// inside the same transaction as the primary write.
func appendAuditTx(tx *gorm.DB, entry domain.AuditEntry) error {
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	body := entry.Body
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	logID := entry.LogID
	if logID == uuid.Nil {
		logID = uuid.New()
	}
	rec := auditLogModel{
		LogID:     logID,
		Type:      entry.Type,
		Meta:      string(meta),
		Body:      string(body),
		CreatedAt: entry.CreatedAt,
	}
	return tx.Create(&rec).Error
}

func (r *auditLogRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	return appendAuditTx(r.db.WithContext(ctx), entry)
}

func (r *auditLogRepository) ListByMeta(ctx context.Context, logType string, meta map[string]string, limit int) ([]domain.AuditEntry, error) {
	q := r.db.WithContext(ctx).Model(&auditLogModel{}).Where("type = ?", logType)
	for key, value := range meta {
		q = q.Where("meta->>? = ?", key, value)
	}
	var rows []auditLogModel
	if err := q.Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAuditEntry(row))
	}
	return out, nil
}

var _ ports.AuditLogRepository = (*auditLogRepository)(nil)
