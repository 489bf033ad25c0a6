package license

import "context"

// LicenseRepository is the ledger contract for license records. All mutations
// go through UpdateWithVersion, a compare-and-swap keyed on the version
// column: a write that loses the race fails with
// errors.ErrConcurrentModification and the caller retries the whole
// read-recompute-write cycle.
type LicenseRepository interface {
	Create(ctx context.Context, lic *License) error
	GetByUserID(ctx context.Context, userID uint) (*License, error)
	UpdateWithVersion(ctx context.Context, lic *License) error
}

// AuditRepository stores hardware-reset audit entries. Append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *HWIDResetAudit) error
	ListByUserID(ctx context.Context, userID uint) ([]*HWIDResetAudit, error)
}
