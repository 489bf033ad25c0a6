package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"keygate/internal/domain/license"
	"keygate/internal/infrastructure/persistence/mappers"
	"keygate/internal/infrastructure/persistence/models"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
)

// LicenseRepository is the SQL ledger. UpdateWithVersion is the only
// mutation path; it compares the version column so concurrent writers
// serialize instead of overwriting each other.
type LicenseRepository struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

func (r *LicenseRepository) Create(ctx context.Context, lic *license.License) error {
	model := mappers.LicenseToModel(lic)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create license: %w", err)
	}

	lic.SetID(model.ID)
	return nil
}

func (r *LicenseRepository) GetByUserID(ctx context.Context, userID uint) (*license.License, error) {
	var model models.LicenseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("license not found")
		}
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return mappers.LicenseToDomain(&model)
}

// UpdateWithVersion writes the record conditionally on the version the
// caller loaded. A zero row count means another writer got there first; the
// caller re-reads and retries.
func (r *LicenseRepository) UpdateWithVersion(ctx context.Context, lic *license.License) error {
	model := mappers.LicenseToModel(lic)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.LicenseModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"status":             model.Status,
			"plan":               model.Plan,
			"expires_at":         model.ExpiresAt,
			"hardware_id":        model.HardwareID,
			"last_hwid_reset_at": model.LastHWIDResetAt,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update license: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrConcurrentModification
	}

	return nil
}
