package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"keygate/internal/domain/license"
	"keygate/internal/infrastructure/persistence/mappers"
	"keygate/internal/infrastructure/persistence/models"
	"keygate/internal/shared/db"
	"keygate/internal/shared/mapper"
)

// AuditRepository stores hardware-reset audit rows. Insert-only.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *license.HWIDResetAudit) error {
	model := mappers.HWIDResetAuditToModel(entry)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append reset audit: %w", err)
	}

	entry.SetID(model.ID)
	return nil
}

func (r *AuditRepository) ListByUserID(ctx context.Context, userID uint) ([]*license.HWIDResetAudit, error) {
	var ms []models.HWIDResetAuditModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list reset audits: %w", err)
	}

	return mapper.MapSlice(ms, func(m models.HWIDResetAuditModel) *license.HWIDResetAudit {
		return mappers.HWIDResetAuditToDomain(&m)
	}), nil
}
