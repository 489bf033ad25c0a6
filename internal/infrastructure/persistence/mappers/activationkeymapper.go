package mappers

import (
	"keygate/internal/domain/activation"
	"keygate/internal/infrastructure/persistence/models"
)

func ActivationKeyToModel(k *activation.Key) *models.ActivationKeyModel {
	return &models.ActivationKeyModel{
		ID:           k.ID(),
		Code:         k.Code(),
		Plan:         k.Plan(),
		DurationDays: k.DurationDays(),
		UsedBy:       k.UsedBy(),
		UsedAt:       k.UsedAt(),
		CreatedAt:    k.CreatedAt(),
	}
}

func ActivationKeyToDomain(model *models.ActivationKeyModel) *activation.Key {
	return activation.ReconstructKey(
		model.ID,
		model.Code,
		model.Plan,
		model.DurationDays,
		model.UsedBy,
		model.UsedAt,
		model.CreatedAt,
	)
}
