package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"keygate/internal/application/license/dto"
	"keygate/internal/domain/license"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// EvaluateLicenseUseCase resolves the effective license status for a user.
// Status is derived from expiry and revocation at read time; when the stored
// status disagrees with the derived one, the record is corrected best-effort.
type EvaluateLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	clock       biztime.Clock
	logger      logger.Interface
}

func NewEvaluateLicenseUseCase(
	licenseRepo license.LicenseRepository,
	clock biztime.Clock,
	logger logger.Interface,
) *EvaluateLicenseUseCase {
	return &EvaluateLicenseUseCase{
		licenseRepo: licenseRepo,
		clock:       clock,
		logger:      logger,
	}
}

// Execute returns the current license snapshot for the user. Missing records
// surface as a snapshot with status "none" rather than an error, so callers
// can render an unlicensed state uniformly.
func (uc *EvaluateLicenseUseCase) Execute(ctx context.Context, userID uint) (*dto.LicenseSnapshot, error) {
	now := uc.clock.Now()

	lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return dto.EmptySnapshot(), nil
		}
		return nil, err
	}

	uc.refreshStoredStatus(ctx, lic, now)

	return dto.SnapshotFromLicense(lic, now), nil
}

// refreshStoredStatus writes back a lazily corrected status. Losing the
// conditional update to a concurrent writer is fine: whoever won has already
// persisted a fresher state, and the derived status we return is unaffected.
func (uc *EvaluateLicenseUseCase) refreshStoredStatus(ctx context.Context, lic *license.License, now time.Time) {
	if !lic.RefreshStatus(now) {
		return
	}
	if err := uc.licenseRepo.UpdateWithVersion(ctx, lic); err != nil {
		if stderrors.Is(err, errors.ErrConcurrentModification) {
			uc.logger.Debugw("skipped lazy status write-back, record changed concurrently", "user_id", lic.UserID())
			return
		}
		uc.logger.Warnw("failed to persist lazy status correction", "user_id", lic.UserID(), "error", err)
	}
}
