package models

import (
	"time"

	"gorm.io/gorm"

	"keygate/internal/shared/constants"
)

// PaymentModel is the persistence model for purchase attempts. The unique
// external_reference index is what makes the approval gate conditional: the
// same provider reference can never produce two rows.
type PaymentModel struct {
	ID                uint   `gorm:"primaryKey"`
	OrderNo           string `gorm:"uniqueIndex;size:64;not null"`
	ExternalReference string `gorm:"uniqueIndex;size:64;not null"`
	UserID            uint   `gorm:"index;not null"`
	Plan              string `gorm:"size:50;not null"`
	DurationDays      int    `gorm:"not null"`
	Amount            int64  `gorm:"not null"`
	Currency          string `gorm:"size:10;not null;default:'BRL'"`
	Status            string `gorm:"size:20;not null;index"`
	PaymentURL        *string `gorm:"type:text"`
	QRCode            *string `gorm:"type:text"`
	TransactionID     *string `gorm:"size:128"`
	ApprovedAt        *time.Time
	AppliedAt         *time.Time
	ExpiresAt         time.Time `gorm:"not null;index"`
	Version           int       `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PaymentModel) TableName() string {
	return constants.TablePayments
}

func (p *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
