package models

import (
	"time"

	"gorm.io/gorm"

	"keygate/internal/shared/constants"
)

// LicenseModel is the persistence model for license records. The version
// column backs the ledger's conditional writes; every mutation goes through
// UPDATE ... WHERE version = ?.
type LicenseModel struct {
	ID              uint    `gorm:"primarykey"`
	UserID          uint    `gorm:"uniqueIndex;not null"`
	Status          string  `gorm:"not null;default:none;size:20;index"`
	Plan            string  `gorm:"size:50"`
	ExpiresAt       *time.Time
	HardwareID      *string `gorm:"size:128"`
	LastHWIDResetAt *time.Time `gorm:"column:last_hwid_reset_at"`
	Version         int `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (LicenseModel) TableName() string {
	return constants.TableLicenses
}

func (l *LicenseModel) BeforeCreate(tx *gorm.DB) error {
	if l.Status == "" {
		l.Status = "none"
	}
	if l.Version == 0 {
		l.Version = 1
	}
	return nil
}
