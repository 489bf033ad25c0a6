// Package dto defines the transport-facing license snapshots.
package dto

import (
	"time"

	"keygate/internal/domain/license"
	vo "keygate/internal/domain/license/valueobjects"
)

// EmptySnapshot represents an account that has never held license time.
func EmptySnapshot() *LicenseSnapshot {
	return &LicenseSnapshot{Status: vo.StatusNone.String()}
}

// LicenseSnapshot is what clients see of a license record.
type LicenseSnapshot struct {
	Status        string     `json:"status"`
	Plan          string     `json:"plan,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
	HWID          *string    `json:"hwid,omitempty"`
}

// SnapshotFromLicense builds a snapshot using the derived status, never the
// stored one.
func SnapshotFromLicense(lic *license.License, now time.Time) *LicenseSnapshot {
	return &LicenseSnapshot{
		Status:        lic.DeriveStatus(now).String(),
		Plan:          lic.Plan(),
		ExpiresAt:     lic.ExpiresAt(),
		DaysRemaining: lic.DaysRemaining(now),
		HWID:          lic.HardwareID(),
	}
}

// HeartbeatResult is the outcome of a client check-in. Denials are expected
// business outcomes carrying a machine-readable reason, not errors.
type HeartbeatResult struct {
	OK            bool   `json:"ok"`
	Reason        string `json:"reason,omitempty"`
	DaysRemaining int    `json:"daysRemaining,omitempty"`
}
