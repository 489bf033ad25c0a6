package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"keygate/internal/domain/activation"
	"keygate/internal/infrastructure/persistence/mappers"
	"keygate/internal/infrastructure/persistence/models"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
)

type ActivationKeyRepository struct {
	db *gorm.DB
}

func NewActivationKeyRepository(db *gorm.DB) *ActivationKeyRepository {
	return &ActivationKeyRepository{db: db}
}

func (r *ActivationKeyRepository) Create(ctx context.Context, k *activation.Key) error {
	model := mappers.ActivationKeyToModel(k)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create activation key: %w", err)
	}

	k.SetID(model.ID)
	return nil
}

func (r *ActivationKeyRepository) GetByCode(ctx context.Context, code string) (*activation.Key, error) {
	var model models.ActivationKeyModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("code = ?", code).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("activation key not found")
		}
		return nil, fmt.Errorf("failed to get activation key: %w", err)
	}

	return mappers.ActivationKeyToDomain(&model), nil
}

// MarkUsedIfUnused consumes the key with one conditional update. Two
// accounts racing on the same code cannot both observe true.
func (r *ActivationKeyRepository) MarkUsedIfUnused(ctx context.Context, code string, userID uint) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationKeyModel{}).
		Where("code = ? AND used_by IS NULL", code).
		Updates(map[string]interface{}{
			"used_by": userID,
			"used_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume activation key: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
