package mappers

import (
	"fmt"

	"keygate/internal/domain/license"
	vo "keygate/internal/domain/license/valueobjects"
	"keygate/internal/infrastructure/persistence/models"
)

func LicenseToModel(lic *license.License) *models.LicenseModel {
	return &models.LicenseModel{
		ID:              lic.ID(),
		UserID:          lic.UserID(),
		Status:          lic.Status().String(),
		Plan:            lic.Plan(),
		ExpiresAt:       lic.ExpiresAt(),
		HardwareID:      lic.HardwareID(),
		LastHWIDResetAt: lic.LastHWIDResetAt(),
		Version:         lic.Version(),
		CreatedAt:       lic.CreatedAt(),
		UpdatedAt:       lic.UpdatedAt(),
	}
}

func LicenseToDomain(model *models.LicenseModel) (*license.License, error) {
	status := vo.LicenseStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid license status: %s", model.Status)
	}

	return license.ReconstructLicense(
		model.ID,
		model.UserID,
		status,
		model.Plan,
		model.ExpiresAt,
		model.HardwareID,
		model.LastHWIDResetAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func HWIDResetAuditToModel(entry *license.HWIDResetAudit) *models.HWIDResetAuditModel {
	return &models.HWIDResetAuditModel{
		ID:        entry.ID(),
		UserID:    entry.UserID(),
		Reason:    entry.Reason(),
		Actor:     string(entry.Actor()),
		CreatedAt: entry.CreatedAt(),
	}
}

func HWIDResetAuditToDomain(model *models.HWIDResetAuditModel) *license.HWIDResetAudit {
	return license.ReconstructHWIDResetAudit(
		model.ID,
		model.UserID,
		model.Reason,
		license.ResetActor(model.Actor),
		model.CreatedAt,
	)
}
