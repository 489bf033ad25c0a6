package models

import (
	"time"

	"keygate/internal/shared/constants"
)

// HWIDResetAuditModel is the append-only audit row for hardware resets.
type HWIDResetAuditModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;not null"`
	Reason    string `gorm:"size:255"`
	Actor     string `gorm:"size:20;not null"`
	CreatedAt time.Time
}

func (HWIDResetAuditModel) TableName() string {
	return constants.TableHWIDResetAudits
}
