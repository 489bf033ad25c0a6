package models

import (
	"time"

	"keygate/internal/shared/constants"
)

// ActivationKeyModel is the persistence model for single-use keys. used_by
// is the consumption marker; the conditional consume targets rows where it
// is still NULL.
type ActivationKeyModel struct {
	ID           uint   `gorm:"primarykey"`
	Code         string `gorm:"uniqueIndex;size:19;not null"`
	Plan         string `gorm:"size:50;not null"`
	DurationDays int    `gorm:"not null"`
	UsedBy       *uint  `gorm:"index"`
	UsedAt       *time.Time
	CreatedAt    time.Time
}

func (ActivationKeyModel) TableName() string {
	return constants.TableActivationKeys
}
