package license

import (
	"fmt"
	"time"

	vo "keygate/internal/domain/license/valueobjects"
	"keygate/internal/shared/biztime"
	apperrors "keygate/internal/shared/errors"
)

// License is the per-account entitlement record: status, plan, expiry and
// hardware binding. Stored status is a cache of the derived status; every
// read path recomputes against expires_at before trusting it.
type License struct {
	id              uint
	userID          uint
	status          vo.LicenseStatus
	plan            string
	expiresAt       *time.Time
	hardwareID      *string
	lastHWIDResetAt *time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewLicense creates the empty license record that accompanies a new account.
func NewLicense(userID uint) (*License, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	now := biztime.NowUTC()
	return &License{
		userID:    userID,
		status:    vo.StatusNone,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructLicense rebuilds a license from persistence.
func ReconstructLicense(
	id, userID uint,
	status vo.LicenseStatus,
	plan string,
	expiresAt *time.Time,
	hardwareID *string,
	lastHWIDResetAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*License, error) {
	if id == 0 {
		return nil, fmt.Errorf("license ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid license status: %s", status)
	}

	return &License{
		id:              id,
		userID:          userID,
		status:          status,
		plan:            plan,
		expiresAt:       expiresAt,
		hardwareID:      hardwareID,
		lastHWIDResetAt: lastHWIDResetAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (l *License) ID() uint {
	return l.id
}

func (l *License) UserID() uint {
	return l.userID
}

// Status returns the stored status. It may lag reality between reads; use
// DeriveStatus for any decision.
func (l *License) Status() vo.LicenseStatus {
	return l.status
}

func (l *License) Plan() string {
	return l.plan
}

func (l *License) ExpiresAt() *time.Time {
	return l.expiresAt
}

func (l *License) HardwareID() *string {
	return l.hardwareID
}

func (l *License) LastHWIDResetAt() *time.Time {
	return l.lastHWIDResetAt
}

// Version returns the optimistic-lock version. Only the persistence layer
// advances it; mutators leave it untouched so a conditional write can compare
// against the value that was loaded.
func (l *License) Version() int {
	return l.version
}

func (l *License) CreatedAt() time.Time {
	return l.createdAt
}

func (l *License) UpdatedAt() time.Time {
	return l.updatedAt
}

// SetID sets the license ID after persistence (used by repository after Create).
func (l *License) SetID(id uint) {
	l.id = id
}

// DeriveStatus recomputes the status from expires_at and now. Revocation is
// sticky: a revoked license stays revoked no matter how much paid time
// remains on it.
func (l *License) DeriveStatus(now time.Time) vo.LicenseStatus {
	if l.status == vo.StatusRevoked {
		return vo.StatusRevoked
	}
	if l.expiresAt == nil {
		return vo.StatusNone
	}
	if !l.expiresAt.After(now) {
		return vo.StatusExpired
	}
	return vo.StatusActive
}

// RefreshStatus reconciles the stored status with the derived status.
// Returns true when the stored value changed and needs a lazy write-back.
func (l *License) RefreshStatus(now time.Time) bool {
	derived := l.DeriveStatus(now)
	if derived == l.status {
		return false
	}
	l.status = derived
	l.updatedAt = now
	return true
}

// DaysRemaining reports whole days of paid time left, rounded up. Zero when
// there is no future expiry.
func (l *License) DaysRemaining(now time.Time) int {
	if l.expiresAt == nil || !l.expiresAt.After(now) {
		return 0
	}
	remaining := l.expiresAt.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Extend adds duration on top of the remaining paid time. An active license
// keeps its remaining time (duration is added to the existing expiry); an
// expired or empty license restarts from now. Revocation survives the
// extension and keeps the license unusable until an admin clears it.
func (l *License) Extend(plan string, duration time.Duration, now time.Time) error {
	if duration <= 0 {
		return fmt.Errorf("extension duration must be positive")
	}

	base := now
	if l.expiresAt != nil && l.expiresAt.After(now) {
		base = *l.expiresAt
	}
	newExpiry := base.Add(duration)

	l.expiresAt = &newExpiry
	if plan != "" {
		l.plan = plan
	}
	if l.status != vo.StatusRevoked {
		l.status = vo.StatusActive
	}
	l.updatedAt = now

	return nil
}

// BindOrVerifyHWID binds the presented hardware identifier on first contact
// and verifies it afterwards. A mismatch is a hard denial; rebinding only
// happens through the explicit reset flow.
// Returns true when the call bound a previously unbound hardware id, which
// is the only case requiring a write.
func (l *License) BindOrVerifyHWID(presented string, now time.Time) (bool, error) {
	if presented == "" {
		return false, fmt.Errorf("hardware ID is required")
	}

	if l.hardwareID == nil {
		l.hardwareID = &presented
		l.updatedAt = now
		return true, nil
	}

	if *l.hardwareID != presented {
		return false, apperrors.NewHWIDMismatchError()
	}

	return false, nil
}

// ResetHWID clears the hardware binding, enforcing at most one reset per
// rolling window. bypassWindow is only ever granted to admin-forced resets
// when the deployment enables it.
func (l *License) ResetHWID(now time.Time, window time.Duration, bypassWindow bool) error {
	if !bypassWindow && l.lastHWIDResetAt != nil {
		availableAt := l.lastHWIDResetAt.Add(window)
		if availableAt.After(now) {
			return apperrors.NewResetRateLimitedError(availableAt)
		}
	}

	l.hardwareID = nil
	l.lastHWIDResetAt = &now
	l.updatedAt = now

	return nil
}

// Revoke marks the license revoked. Idempotent.
func (l *License) Revoke(now time.Time) {
	if l.status == vo.StatusRevoked {
		return
	}
	l.status = vo.StatusRevoked
	l.updatedAt = now
}

// ClearRevocation lifts a revocation; the status falls back to whatever the
// expiry dictates.
func (l *License) ClearRevocation(now time.Time) error {
	if l.status != vo.StatusRevoked {
		return fmt.Errorf("license is not revoked")
	}
	// Recompute from expiry as if the revocation never happened.
	l.status = vo.StatusNone
	l.status = l.DeriveStatus(now)
	l.updatedAt = now
	return nil
}

// SetExpiry overwrites the expiry directly. Admin-only path.
func (l *License) SetExpiry(expiresAt time.Time, now time.Time) {
	utc := biztime.ToUTC(expiresAt)
	l.expiresAt = &utc
	if l.status != vo.StatusRevoked {
		l.status = l.DeriveStatus(now)
	}
	l.updatedAt = now
}
