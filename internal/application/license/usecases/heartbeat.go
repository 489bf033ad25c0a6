package usecases

import (
	"context"
	stderrors "errors"

	"keygate/internal/application/license/dto"
	"keygate/internal/domain/license"
	vo "keygate/internal/domain/license/valueobjects"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/config"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// HeartbeatUseCase handles periodic client check-ins. A heartbeat either
// passes (active license, hardware id bound or matching) or is denied with a
// machine-readable reason the client acts on. Denials are results, not
// errors; errors are reserved for infrastructure failures.
type HeartbeatUseCase struct {
	licenseRepo license.LicenseRepository
	cfg         config.LicenseConfig
	clock       biztime.Clock
	logger      logger.Interface
}

func NewHeartbeatUseCase(
	licenseRepo license.LicenseRepository,
	cfg config.LicenseConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *HeartbeatUseCase {
	return &HeartbeatUseCase{
		licenseRepo: licenseRepo,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
	}
}

// Execute evaluates a check-in from the given hardware. The first heartbeat
// of an active license binds its hardware id; later heartbeats from other
// hardware are denied until the binding is reset.
func (uc *HeartbeatUseCase) Execute(ctx context.Context, userID uint, hwid string) (*dto.HeartbeatResult, error) {
	attempts := uc.cfg.ExtendRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, needsWrite, lic, err := uc.evaluate(ctx, userID, hwid)
		if err != nil {
			return nil, err
		}
		if !needsWrite {
			return result, nil
		}

		err = uc.licenseRepo.UpdateWithVersion(ctx, lic)
		if err == nil {
			return result, nil
		}
		if stderrors.Is(err, errors.ErrConcurrentModification) {
			uc.logger.Debugw("heartbeat write lost version race, retrying",
				"user_id", userID,
				"attempt", attempt,
			)
			continue
		}
		return nil, err
	}

	return nil, errors.NewExtensionConflictError()
}

// evaluate runs one read-decide cycle. needsWrite reports whether the denial
// check bound a hardware id or corrected a stale stored status on the way.
func (uc *HeartbeatUseCase) evaluate(ctx context.Context, userID uint, hwid string) (*dto.HeartbeatResult, bool, *license.License, error) {
	now := uc.clock.Now()

	lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return denied(errors.ErrorTypeNotLicensed), false, nil, nil
		}
		return nil, false, nil, err
	}

	needsWrite := lic.RefreshStatus(now)

	switch lic.DeriveStatus(now) {
	case vo.StatusRevoked:
		return denied(errors.ErrorTypeRevoked), needsWrite, lic, nil
	case vo.StatusNone:
		return denied(errors.ErrorTypeNotLicensed), needsWrite, lic, nil
	case vo.StatusExpired:
		return denied(errors.ErrorTypeExpired), needsWrite, lic, nil
	}

	bound, err := lic.BindOrVerifyHWID(hwid, now)
	if err != nil {
		appErr := errors.GetAppError(err)
		if appErr != nil && appErr.Type == errors.ErrorTypeHWIDMismatch {
			return denied(errors.ErrorTypeHWIDMismatch), needsWrite, lic, nil
		}
		return nil, false, nil, err
	}
	if bound {
		uc.logger.Infow("hardware id bound", "user_id", userID)
		needsWrite = true
	}

	return &dto.HeartbeatResult{
		OK:            true,
		DaysRemaining: lic.DaysRemaining(now),
	}, needsWrite, lic, nil
}

func denied(reason errors.ErrorType) *dto.HeartbeatResult {
	return &dto.HeartbeatResult{OK: false, Reason: string(reason)}
}
