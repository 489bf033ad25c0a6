package license

import (
	"fmt"
	"time"

	"keygate/internal/shared/biztime"
)

// ResetActor identifies who requested a hardware reset, for audit purposes.
type ResetActor string

const (
	ResetActorUser  ResetActor = "user"
	ResetActorAdmin ResetActor = "admin"
)

// HWIDResetAudit is an append-only record of a hardware reset. It exists to
// enforce and audit the rolling rebind policy; entries are never mutated.
type HWIDResetAudit struct {
	id        uint
	userID    uint
	reason    string
	actor     ResetActor
	createdAt time.Time
}

// NewHWIDResetAudit records a hardware reset that just happened.
func NewHWIDResetAudit(userID uint, reason string, actor ResetActor) (*HWIDResetAudit, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if actor != ResetActorUser && actor != ResetActorAdmin {
		return nil, fmt.Errorf("invalid reset actor: %s", actor)
	}

	return &HWIDResetAudit{
		userID:    userID,
		reason:    reason,
		actor:     actor,
		createdAt: biztime.NowUTC(),
	}, nil
}

// ReconstructHWIDResetAudit rebuilds an audit entry from persistence.
func ReconstructHWIDResetAudit(id, userID uint, reason string, actor ResetActor, createdAt time.Time) *HWIDResetAudit {
	return &HWIDResetAudit{
		id:        id,
		userID:    userID,
		reason:    reason,
		actor:     actor,
		createdAt: createdAt,
	}
}

func (a *HWIDResetAudit) ID() uint {
	return a.id
}

func (a *HWIDResetAudit) UserID() uint {
	return a.userID
}

func (a *HWIDResetAudit) Reason() string {
	return a.reason
}

func (a *HWIDResetAudit) Actor() ResetActor {
	return a.actor
}

func (a *HWIDResetAudit) CreatedAt() time.Time {
	return a.createdAt
}

// SetID sets the audit entry ID after persistence.
func (a *HWIDResetAudit) SetID(id uint) {
	a.id = id
}
